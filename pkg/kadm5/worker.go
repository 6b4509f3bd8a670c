package kadm5

import (
	"context"
	"runtime"
	"time"

	"github.com/authentik-community/kadmin-go/internal/bindings"
	"github.com/authentik-community/kadmin-go/pkg/kadm5/logging"
)

// The kadm5 library is not thread safe, and parts of its handle
// lifecycle (profile loading, GSSAPI context setup) are not even safe
// to run concurrently across independent handles. A process-wide lock
// serializes every native open and close; command execution needs no
// global lock because each handle is confined to its own worker.
//
// A one-slot channel rather than a sync.Mutex: acquisition has to be
// able to give up after initLockTimeout and report ErrLock, and a
// mutex has no timed acquire.
var initLock = make(chan struct{}, 1)

// initLockTimeout bounds how long a client will wait for another
// client's open or close to finish before reporting ErrLock.
var initLockTimeout = time.Minute

func acquireInitLock() error {
	t := time.NewTimer(initLockTimeout)
	defer t.Stop()
	select {
	case initLock <- struct{}{}:
		return nil
	case <-t.C:
		return ErrLock
	}
}

func releaseInitLock() {
	<-initLock
}

// command is one operation handed to the worker. The reply channel is
// buffered so the worker never blocks on a caller that gave up.
type command struct {
	run   func(h *bindings.Handle) (any, error)
	reply chan response
}

type response struct {
	value any
	err   error
}

// worker owns a native handle and the OS thread it lives on. All
// commands execute on that thread, in arrival order, one at a time.
// The handle never leaves the worker goroutine; it is opened there,
// used there, and closed there.
type worker struct {
	cmds    chan command
	stopped chan struct{}
	log     logging.Logger

	// closeErr is the result of closing the native handle. Written
	// before stopped is closed, read only after.
	closeErr error
}

// startWorker spawns the worker goroutine and opens the native handle
// on it. It returns once the handle is open; an open failure stops the
// goroutine and leaves nothing behind.
func startWorker(be backend, open func(backend) (*bindings.Handle, error), log logging.Logger) (*worker, error) {
	w := &worker{
		cmds:    make(chan command),
		stopped: make(chan struct{}),
		log:     log,
	}
	ready := make(chan error, 1)
	go w.run(be, open, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return w, nil
}

func (w *worker) run(be backend, open func(backend) (*bindings.Handle, error), ready chan<- error) {
	// The handle is bound to this thread for its whole life, so the
	// thread is never returned to the scheduler's pool.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h, err := w.openHandle(be, open)
	if err != nil {
		ready <- err
		return
	}
	ready <- nil

	for cmd := range w.cmds {
		cmd.reply <- w.exec(h, cmd)
	}

	w.closeErr = w.closeHandle(be, h)
	close(w.stopped)
}

func (w *worker) openHandle(be backend, open func(backend) (*bindings.Handle, error)) (*bindings.Handle, error) {
	if err := acquireInitLock(); err != nil {
		return nil, err
	}
	defer releaseInitLock()
	return open(be)
}

func (w *worker) closeHandle(be backend, h *bindings.Handle) error {
	if err := acquireInitLock(); err != nil {
		w.log.Error(context.Background(), "handle close skipped, initialization lock unavailable")
		return err
	}
	defer releaseInitLock()
	if err := be.Close(h); err != nil {
		w.log.Error(context.Background(), "native handle close failed", "error", err)
		return err
	}
	return nil
}

// exec runs one command, converting a panic in the backend into a
// RuntimeFault. The worker itself survives; only the command fails.
func (w *worker) exec(h *bindings.Handle, cmd command) (res response) {
	defer func() {
		if v := recover(); v != nil {
			w.log.Error(context.Background(), "worker recovered panic", "value", v)
			res = response{err: &RuntimeFault{Value: v}}
		}
	}()
	value, err := cmd.run(h)
	return response{value: value, err: err}
}

// submit hands one operation to the worker and waits for its reply.
// The caller must hold the client's send permit (see kadmin.go), which
// guarantees the command channel is not closed underneath us.
func (w *worker) submit(run func(h *bindings.Handle) (any, error)) (any, error) {
	cmd := command{run: run, reply: make(chan response, 1)}
	select {
	case w.cmds <- cmd:
	case <-w.stopped:
		return nil, ErrThreadSend
	}
	select {
	case r := <-cmd.reply:
		return r.value, r.err
	case <-w.stopped:
		// The worker replies to every accepted command before it
		// exits, so a reply may already be buffered.
		select {
		case r := <-cmd.reply:
			return r.value, r.err
		default:
			return nil, ErrThreadRecv
		}
	}
}

// stop closes the command channel and waits for the worker to close
// the native handle and exit. It must be called exactly once.
func (w *worker) stop() error {
	close(w.cmds)
	<-w.stopped
	return w.closeErr
}
