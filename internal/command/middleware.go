package command

// Middleware wraps an ExecFunc (logging, timing, recovery).
type Middleware func(ExecFunc) ExecFunc

// Chain applies mws around next; the first middleware is the outermost.
func Chain(next ExecFunc, mws ...Middleware) ExecFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](next)
	}
	return next
}
