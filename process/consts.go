package process

// MaxPrio is MAX_PRIO: the number of distinct priority levels the
// multi-level queue scheduler recognizes, 0 (highest) .. MaxPrio-1.
const MaxPrio = 4

// NumRegisters is NREG: the size of a PCB's register file.
const NumRegisters = 8

// MaxSymTableSize is PAGING_MAX_SYMTBL_SZ: the number of named regions
// (symrgtbl slots) a process's memory map tracks.
const MaxSymTableSize = 32

// DefaultVMAID is the id of the single heap VMA every process's memory
// map starts with (NewMM) and that ALLOC/FREE/READ/WRITE address by
// default; §2's synthetic programs never address more than one heap.
const DefaultVMAID = 0

// WeightNorm is the CFS nice-0 scheduling weight (§4.4): weight(nice) =
// WeightNorm << ((-nice)/10) for nice <= 0, WeightNorm >> (nice/10)
// otherwise.
const WeightNorm = 1024

// SchedLatencyNsec is the CFS scheduling period (§4.4): the target
// window within which every runnable task gets scheduled at least once.
const SchedLatencyNsec = 24_000_000

// MinGranularityNsec is the CFS minimum time slice (§4.4): the floor
// applied when SchedLatencyNsec/runnable would otherwise give a task
// less than this.
const MinGranularityNsec = 3_000_000
