package kafka

import (
	"context"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Restocker пополняет остаток товара.
type Restocker interface {
	Restock(ctx context.Context, id domain.ProductID, delta int32) (domain.Product, error)
}

// NewRestockHandler возвращает обработчик topic storefront.inventory.restock.
// Неизвестный товар, неверное количество и битый JSON считаются постоянными
// ошибками; сбои хранилища повторяются.
func NewRestockHandler(restocker Restocker, logger *log.Entry) MessageHandler {
	if logger == nil {
		logger = log.WithField("component", "restock-consumer")
	}
	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		event, err := ParseRestockEvent(message)
		if err != nil {
			return Permanent(err)
		}

		product, err := restocker.Restock(ctx, domain.ProductID(event.ProductID), event.Quantity)
		if err != nil {
			switch domain.KindOf(err) {
			case domain.KindProductNotFound, domain.KindInvalidQuantity, domain.KindValidation:
				return Permanent(err)
			}
			return err
		}

		logger.WithFields(log.Fields{
			"product_id": product.ID,
			"delta":      event.Quantity,
			"stock":      product.Stock,
			"reference":  event.Reference,
		}).Info("product restocked")
		return nil
	}
}
