// Package observe watches bound expressions for changes by dirty checking.
//
// An Observer evaluates its expression once on creation and records every
// (object, key, value) read along the way. Nothing is notified when the
// model is mutated; instead the owning Runtime compares each recorded read
// against the live model at a checkpoint, re-evaluates the observers whose
// reads changed, and calls their callbacks when the result differs:
//
//	rt := observe.NewRuntime()
//	o := rt.Observe(expr.MustParse("user.first + ' ' + user.last"), expr.NewScope(model))
//	text, _ := o.Open(func(newValue, oldValue any) { render(newValue) })
//
//	user["first"] = "Sally"
//	rt.Checkpoint(ctx) // render("Sally ...") is called exactly once
//
// All mutations made between two checkpoints coalesce into a single
// re-evaluation per observer. Callbacks may mutate the model or close
// observers, including themselves; the checkpoint keeps cycling until no
// observer changes or WithMaxCycles is reached.
//
// A Runtime belongs to one goroutine. Run starts a loop that checkpoints on
// a ticker, and Do and Request let other goroutines hand it work.
package observe
