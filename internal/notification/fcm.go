package notification

import (
	"context"
	"errors"
	"maps"

	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
)

var ErrAllPushesFailed = errors.New("all push notifications failed")

// Sender is the part of the messaging client FCMService uses.
type Sender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type FCMService struct {
	client Sender
	log    *logrus.Entry
}

func NewFCMService(client Sender, log *logrus.Entry) *FCMService {
	return &FCMService{client: client, log: log}
}

// SendPush sends p to each of its tokens. It only fails when no token
// accepted the message.
func (s *FCMService) SendPush(ctx context.Context, p Push) error {
	if len(p.Tokens) == 0 {
		return nil
	}

	data := map[string]string{"type": string(p.Type)}
	maps.Copy(data, p.Data)

	message := &messaging.MulticastMessage{
		Tokens: p.Tokens,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	resp, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return err
	}

	for i, r := range resp.Responses {
		if !r.Success {
			s.log.WithFields(logrus.Fields{"user_id": p.UserID, "token_index": i}).
				WithError(r.Error).Warn("FCM: failed to send to token")
		}
	}
	s.log.WithFields(logrus.Fields{
		"user_id": p.UserID,
		"sent":    resp.SuccessCount,
		"failed":  resp.FailureCount,
	}).Info("FCM: push sent")

	if resp.SuccessCount == 0 && resp.FailureCount > 0 {
		return ErrAllPushesFailed
	}
	return nil
}
