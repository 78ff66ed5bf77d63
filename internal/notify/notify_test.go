package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var event = Event{
	Kind:          TopUpConfirmed,
	UserID:        "user-1",
	TransactionID: "topup-1",
	Reference:     "TU1714557600000AB12CD",
	Amount:        1500000,
	At:            time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
}

func TestDispatcher_Notify(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := NewMockNotifier(ctrl)
	second := NewMockNotifier(ctrl)

	var wg sync.WaitGroup
	wg.Add(2)
	first.EXPECT().Send(gomock.Any(), event).DoAndReturn(func(context.Context, Event) error {
		defer wg.Done()
		return nil
	})
	second.EXPECT().Send(gomock.Any(), event).DoAndReturn(func(context.Context, Event) error {
		defer wg.Done()
		return errors.New("telegram is down")
	})

	d := NewDispatcher(2, []Notifier{first, second})
	d.Notify(context.Background(), event)
	wg.Wait()
	d.Close()
}

func TestDispatcher_SetsTimestamp(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := NewMockNotifier(ctrl)

	done := make(chan Event, 1)
	n.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e Event) error {
		done <- e
		return nil
	})

	d := NewDispatcher(1, []Notifier{n})
	d.Notify(context.Background(), Event{Kind: WithdrawalRequested})
	d.Close()

	got := <-done
	assert.False(t, got.At.IsZero())
}

func TestDispatcher_NotifyDoesNotWaitOnStuckNotifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := NewMockNotifier(ctrl)

	release := make(chan struct{})
	n.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, Event) error {
		<-release
		return nil
	}).AnyTimes()

	d := NewDispatcher(1, []Notifier{n})
	defer d.Close()
	defer close(release)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// one busy worker, a full queue, and then some
		for i := 0; i < queuePerWorker+5; i++ {
			d.Notify(context.Background(), event)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked while the notifier was stuck")
	}
}

func TestDispatcher_NotifyAfterRequestCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := NewMockNotifier(ctrl)

	sent := make(chan Event, 1)
	n.EXPECT().Send(gomock.Any(), event).DoAndReturn(func(_ context.Context, e Event) error {
		sent <- e
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(1, []Notifier{n})
	d.Notify(ctx, event)
	d.Close()

	assert.Equal(t, event, <-sent)
}

func TestDispatcher_AfterClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := NewMockNotifier(ctrl)

	d := NewDispatcher(1, []Notifier{n})
	d.Close()
	d.Notify(context.Background(), event)
}

type senderMock struct {
	mock.Mock
}

func (m *senderMock) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func TestTelegramNotifier_Send(t *testing.T) {
	sender := new(senderMock)
	n := &TelegramNotifier{bot: sender, chatID: 42}

	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == 42 && msg.Text == FormatEvent(event)
	})).Return(tgbotapi.Message{}, nil).Once()
	require.NoError(t, n.Send(context.Background(), event))

	sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("forbidden")).Once()
	assert.Error(t, n.Send(context.Background(), event))

	sender.AssertExpectations(t)
}

func TestTelegramNotifier_SendGivesUpOnContext(t *testing.T) {
	sender := new(senderMock)
	n := &TelegramNotifier{bot: sender, chatID: 42}

	release := make(chan time.Time)
	defer close(release)
	sender.On("Send", mock.Anything).WaitUntil(release).Return(tgbotapi.Message{}, nil).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := n.Send(ctx, event)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFormatEvent(t *testing.T) {
	assert.Equal(t,
		"Top-up confirmed\nAmount: Rp 1.500.000\nRef: TU1714557600000AB12CD\nID: topup-1\nUser: user-1",
		FormatEvent(event))
	assert.Equal(t,
		"custom.kind\nAmount: Rp 0\nID: \nUser: ",
		FormatEvent(Event{Kind: "custom.kind"}))
}

func TestFormatRupiah(t *testing.T) {
	tests := map[int64]string{
		0:        "Rp 0",
		999:      "Rp 999",
		10000:    "Rp 10.000",
		2500:     "Rp 2.500",
		1500000:  "Rp 1.500.000",
		-250000:  "-Rp 250.000",
		97500000: "Rp 97.500.000",
	}
	for amount, expected := range tests {
		assert.Equal(t, expected, FormatRupiah(amount))
	}
}

type sqsMock struct {
	mock.Mock
}

func (m *sqsMock) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*sqs.SendMessageOutput)
	return out, args.Error(1)
}

func TestSQSNotifier_Send(t *testing.T) {
	client := new(sqsMock)
	n := &SQSNotifier{client: client, queueURL: "https://sqs.example.test/queue"}

	client.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		var got Event
		if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &got); err != nil {
			return false
		}
		return aws.ToString(in.QueueUrl) == "https://sqs.example.test/queue" &&
			aws.ToString(in.MessageAttributes["kind"].StringValue) == TopUpConfirmed &&
			got.Kind == event.Kind &&
			got.TransactionID == event.TransactionID &&
			got.Amount == event.Amount &&
			got.At.Equal(event.At)
	})).Return(&sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil).Once()
	require.NoError(t, n.Send(context.Background(), event))

	client.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("access denied")).Once()
	assert.Error(t, n.Send(context.Background(), event))

	client.AssertExpectations(t)
}
