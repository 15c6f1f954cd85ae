package model

import "time"

// Result carries the outcome of a side effect the caller may choose to ignore.
// Registry and audit writes return one so that discarding a failure is a
// visible decision at the call site.
type Result[T any] struct {
	Value T
	Err   error
}

func Ok[T any](v T) Result[T]          { return Result[T]{Value: v} }
func Fail[T any](err error) Result[T]  { return Result[T]{Err: err} }
func (r Result[T]) Ok() bool           { return r.Err == nil }
func (r Result[T]) Unwrap() (T, error) { return r.Value, r.Err }

// Delivery is the tagged outcome of one platform send: either Delivered with
// the platform's identifier or Undelivered with the reason.
type Delivery struct {
	ID     string
	At     time.Time
	Reason error
}

func Delivered(id string, at time.Time) Delivery { return Delivery{ID: id, At: at} }
func Undelivered(reason error) Delivery          { return Delivery{Reason: reason} }

// Succeeded reports which variant d is.
func (d Delivery) Succeeded() bool { return d.Reason == nil }
