package repository

import (
	"context"

	"NotiGate/internal/domain/models"
	"NotiGate/internal/domain/repository"
	"NotiGate/pkg/queue"
)

const alertMessageType = "alert_dispatch"

// AlertPayload is the queue message carrying a throttled failure alert.
type AlertPayload struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// QueueAlertSink enqueues alerts onto the Redis queue so the failure monitor
// never blocks on delivery. The queue's retry/DLQ machinery owns redelivery.
type QueueAlertSink struct {
	queue queue.QueueService
}

func NewQueueAlertSink(q queue.QueueService) *QueueAlertSink {
	return &QueueAlertSink{queue: q}
}

func (s *QueueAlertSink) SendAlert(ctx context.Context, subject, message string) error {
	return s.queue.PublishMessage(ctx, alertMessageType, AlertPayload{
		Subject: subject,
		Message: message,
	})
}

// AlertDispatchJob drains queued alerts and hands them to the dispatcher.
type AlertDispatchJob struct {
	dispatcher repository.Dispatcher
	recipients repository.RecipientDirectory
}

func NewAlertDispatchJob(dispatcher repository.Dispatcher, recipients repository.RecipientDirectory) *AlertDispatchJob {
	return &AlertDispatchJob{dispatcher: dispatcher, recipients: recipients}
}

func (j *AlertDispatchJob) Name() string { return "alert-dispatch" }
func (j *AlertDispatchJob) Type() string { return alertMessageType }

func (j *AlertDispatchJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[AlertPayload](payload)
	if err != nil {
		return err
	}
	var recipients []string
	if j.recipients != nil {
		recipients, _ = j.recipients.ListNotificationRecipients(ctx)
	}
	return j.dispatcher.Dispatch(ctx, &models.Notification{
		Kind:       models.KindAlert,
		Subject:    p.Subject,
		Body:       p.Message,
		Recipients: recipients,
	})
}

var _ queue.Job = (*AlertDispatchJob)(nil)

// DirectAlertSink dispatches alerts synchronously. Used when Redis is not
// configured; delivery failures still never reach the failure-reporting caller.
type DirectAlertSink struct {
	dispatcher repository.Dispatcher
	recipients repository.RecipientDirectory
}

func NewDirectAlertSink(dispatcher repository.Dispatcher, recipients repository.RecipientDirectory) *DirectAlertSink {
	return &DirectAlertSink{dispatcher: dispatcher, recipients: recipients}
}

func (s *DirectAlertSink) SendAlert(ctx context.Context, subject, message string) error {
	var recipients []string
	if s.recipients != nil {
		recipients, _ = s.recipients.ListNotificationRecipients(ctx)
	}
	return s.dispatcher.Dispatch(ctx, &models.Notification{
		Kind:       models.KindAlert,
		Subject:    subject,
		Body:       message,
		Recipients: recipients,
	})
}
