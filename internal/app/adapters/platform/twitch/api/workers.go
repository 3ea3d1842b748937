package api

import (
	"errors"
	"sync"
)

var ErrQueueFull = errors.New("worker pool queue is full")

// Pool выполняет запросы к API в фоне.
type Pool struct {
	wg       sync.WaitGroup
	tasks    chan func()
	stopOnce sync.Once
}

func NewPool(workers, queue int) *Pool {
	p := &Pool{tasks: make(chan func(), queue)}
	for range workers {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) Submit(task func()) (err error) {
	defer func() {
		if recover() != nil {
			err = errors.New("worker pool is stopped")
		}
	}()

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop дожидается уже поставленных задач.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.tasks)
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for task := range p.tasks {
		task()
	}
}
