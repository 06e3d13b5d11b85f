// Package queue provides the Redis-backed work-queue transport for the
// task-agent invocation style.
//
// Task descriptors are pushed onto a Redis list as Items, one queue per
// project or per stage as the caller prefers. Workers pop items, execute the
// registered handler through the runner's task wrapper, and publish the
// structured completion results to a pub/sub channel for collection.
//
// The queue carries opaque JSON payloads; the runner package owns the
// descriptor and result wire formats.
package queue
