package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"wizzAPI/internal/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, p notification.Push) error
}

// NotificationDispatcher sends pushes from a small worker pool so callers
// never wait on the push provider.
type NotificationDispatcher struct {
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan notification.Push
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	log          *logrus.Entry

	sendTimeout  time.Duration
	queueTimeout time.Duration
}

func NewNotificationDispatcher(provider PushNotificationProvider, workers int, log *logrus.Entry) *NotificationDispatcher {
	if workers <= 0 {
		workers = 5
	}
	d := &NotificationDispatcher{
		pushProvider: provider,
		workers:      workers,
		jobQueue:     make(chan notification.Push, 100),
		stopChan:     make(chan struct{}),
		log:          log,
		sendTimeout:  10 * time.Second,
		queueTimeout: 5 * time.Second,
	}

	d.startWorkers()
	return d
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case p := <-d.jobQueue:
			d.processJob(id, p)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(worker int, p notification.Push) {
	if len(p.Tokens) == 0 || d.pushProvider == nil {
		d.log.WithFields(logrus.Fields{
			"user_id":      p.UserID,
			"tokens":       len(p.Tokens),
			"provider_set": d.pushProvider != nil,
		}).Debug("Dispatcher: skipping push")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.pushProvider.SendPush(ctx, p); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{"user_id": p.UserID, "worker": worker}).
			Error("Dispatcher: push failed")
	}
}

// Dispatch queues p. It reports false when the queue stayed full, ctx ended
// or the dispatcher is stopped.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, p notification.Push) bool {
	select {
	case <-d.stopChan:
		return false
	default:
	}

	timer := time.NewTimer(d.queueTimeout)
	defer timer.Stop()

	select {
	case d.jobQueue <- p:
		return true
	case <-d.stopChan:
		return false
	case <-ctx.Done():
		d.log.WithField("user_id", p.UserID).Warn("Dispatcher: request ended before the push was queued")
		return false
	case <-timer.C:
		d.log.WithField("user_id", p.UserID).Warn("Dispatcher: queue full, dropping push")
		return false
	}
}

// Stop ends the workers after their current job. Queued pushes are dropped.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopChan) })
	d.wg.Wait()
}
