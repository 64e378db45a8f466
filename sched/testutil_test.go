package sched

import "github.com/rcornwell/oscore/process"

func newPCB(pid uint32, priority int) *process.PCB {
	return process.NewPCB(pid, "p", priority, nil, process.DefaultVMAID, 0)
}
