package rworker

import "sync"

// Job schedules fn on a goroutine rate-limited by the rate channel. The
// first error is kept, later ones are dropped.
func Job(wg *sync.WaitGroup, fn func() error, rate chan struct{}, errCh chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		rate <- struct{}{}
		if err := fn(); err != nil {
			select {
			case errCh <- err:
			default:
			}
		}
		<-rate
	}()
}

// Run executes fn(0..n-1) with at most limit goroutines in flight and waits
// for all of them. Callers that need ordered results write into slot i from
// fn(i); Run itself imposes no result order. The first error wins.
func Run(n, limit int, fn func(i int) error) error {
	if limit < 1 {
		limit = 1
	}
	var wg sync.WaitGroup
	rate := make(chan struct{}, limit)
	errCh := make(chan error, 1)
	for i := 0; i < n; i++ {
		i := i
		Job(&wg, func() error { return fn(i) }, rate, errCh)
	}
	wg.Wait()
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
