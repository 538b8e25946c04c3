// Package locking implements mutual exclusion for operations that must run
// on at most one node of a cluster (or at most once per host) at a time.
//
// The authority of record is a replicated directory store: atomic directory
// creation is the acquisition primitive, and the entry's modification time
// doubles as a heartbeat and as a cooperative preemption signal. A local
// advisory file lock acts as a cheap same-host fast filter in front of the
// shared store.
//
// Every lock variant implements the Lock interface. ClusterLock composes the
// two mechanisms into a fixed two-stage chain with all-or-nothing acquisition.
package locking
