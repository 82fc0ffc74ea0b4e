package workers

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
)

type ResponseClient interface {
	SendResponse(ctx context.Context, response *domain.Response)
}

// responseSender delivers responses in order per chat. Each chat with pending
// responses gets its own goroutine, so a slow upload only delays its own chat.
type responseSender struct {
	client     ResponseClient
	responseCh <-chan domain.Response

	mu     sync.Mutex
	queues map[int64][]domain.Response
	wg     sync.WaitGroup
}

func NewResponseSender(client ResponseClient, responseCh <-chan domain.Response) *responseSender {
	return &responseSender{
		client:     client,
		responseCh: responseCh,
		queues:     make(map[int64][]domain.Response),
	}
}

func (s *responseSender) Name() string { return "response_sender" }

func (s *responseSender) Start(ctx context.Context) error {
	slog.Info("Starting worker", "name", s.Name())
	defer slog.Info("Worker stopped", "name", s.Name())

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return nil
		case response := <-s.responseCh:
			s.enqueue(ctx, response)
		}
	}
}

func (s *responseSender) enqueue(ctx context.Context, response domain.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, active := s.queues[response.ChatID]
	s.queues[response.ChatID] = append(queue, response)
	if active {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.drain(ctx, response.ChatID)
	}()
}

func (s *responseSender) drain(ctx context.Context, chatID int64) {
	for {
		s.mu.Lock()
		queue := s.queues[chatID]
		if len(queue) == 0 {
			delete(s.queues, chatID)
			s.mu.Unlock()
			return
		}
		response := queue[0]
		s.queues[chatID] = queue[1:]
		s.mu.Unlock()

		s.client.SendResponse(ctx, &response)
	}
}
