package facades

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

func testEvent() models.SettlementEvent {
	return models.SettlementEvent{
		EventID:    "evt-1",
		Type:       models.EventOrderAccepted,
		OrderID:    uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Amount:     decimal.RequireFromString("20.30"),
		Currency:   models.USD,
		OccurredAt: 1709287200,
	}
}

func TestKafkaNotifier_Publish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	writer := NewMockKafkaWriter(ctrl)
	event := testEvent()

	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, msgs ...kafka.Message) error {
			require.Len(t, msgs, 1)
			assert.Equal(t, event.OrderID.String(), string(msgs[0].Key))
			assert.Equal(t, "type", msgs[0].Headers[0].Key)
			assert.Equal(t, models.EventOrderAccepted, string(msgs[0].Headers[0].Value))

			var got models.SettlementEvent
			require.NoError(t, json.Unmarshal(msgs[0].Value, &got))
			assert.Equal(t, event.EventID, got.EventID)
			return nil
		})

	assert.NoError(t, NewKafkaNotifier(writer).Publish(context.Background(), event))
}

func TestKafkaNotifier_KeysWalletEventsByUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	writer := NewMockKafkaWriter(ctrl)
	event := models.SettlementEvent{EventID: "evt-2", Type: models.EventWithdrawal, UserID: uuid.New()}

	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, msgs ...kafka.Message) error {
			assert.Equal(t, event.UserID.String(), string(msgs[0].Key))
			return errors.New("broker down")
		})

	assert.EqualError(t, NewKafkaNotifier(writer).Publish(context.Background(), event), "broker down")
}

func TestRabbitMQNotifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ch := NewMockAMQPChannel(ctrl)
	event := testEvent()

	ch.EXPECT().ExchangeDeclare("settlement", "topic", true, false, false, false, nil).Return(nil)
	ch.EXPECT().PublishWithContext(gomock.Any(), "settlement", models.EventOrderAccepted, false, false, gomock.Any()).DoAndReturn(
		func(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
			assert.Equal(t, "application/json", msg.ContentType)
			assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
			assert.Equal(t, event.EventID, msg.MessageId)
			return nil
		})

	n, err := NewRabbitMQNotifier(ch, "settlement")
	require.NoError(t, err)
	assert.NoError(t, n.Publish(context.Background(), event))
	assert.NoError(t, n.Close())
}

func TestRabbitMQNotifier_DeclareError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ch := NewMockAMQPChannel(ctrl)
	ch.EXPECT().ExchangeDeclare(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("access refused"))

	n, err := NewRabbitMQNotifier(ch, "settlement")
	assert.Error(t, err)
	assert.Nil(t, n)
}

func TestFanoutNotifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ok := NewMockNotifier(ctrl)
	failing := NewMockNotifier(ctrl)
	event := testEvent()

	ok.EXPECT().Publish(gomock.Any(), event).Return(nil).Times(2)
	failing.EXPECT().Publish(gomock.Any(), event).Return(errors.New("boom"))

	assert.NoError(t, FanoutNotifier{ok}.Publish(context.Background(), event))

	err := FanoutNotifier{failing, ok}.Publish(context.Background(), event)
	assert.EqualError(t, err, "boom")
}
