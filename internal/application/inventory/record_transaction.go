package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

// RecordTransactionUseCase es el motor de transacciones de stock: muta la
// existencia de un par (artículo, ubicación) y anota el libro mayor de forma
// atómica, con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
// Los eventos se publican estrictamente después del commit.
type RecordTransactionUseCase struct {
	txRunner     TxRunner
	itemRepo     repository.ItemRepository
	locationRepo repository.LocationRepository
	userRepo     repository.UserRepository
	publisher    EventPublisher
	log          *logger.Logger
}

// NewRecordTransactionUseCase construye el motor.
func NewRecordTransactionUseCase(
	txRunner TxRunner,
	itemRepo repository.ItemRepository,
	locationRepo repository.LocationRepository,
	userRepo repository.UserRepository,
	publisher EventPublisher,
	log *logger.Logger,
) *RecordTransactionUseCase {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &RecordTransactionUseCase{
		txRunner:     txRunner,
		itemRepo:     itemRepo,
		locationRepo: locationRepo,
		userRepo:     userRepo,
		publisher:    publisher,
		log:          log,
	}
}

// RecordTransactionInput entrada para registrar una transacción de stock.
// El signo de ChangeQuantity ya debe corresponder a la dirección del tipo
// (responsabilidad del caller en su frontera); el motor impone en todo caso
// que la cantidad resultante no sea negativa.
type RecordTransactionInput struct {
	ItemID          string
	LocationID      string
	ChangeQuantity  int64
	Type            string
	UserID          string // opcional; vacío = sistema
	Notes           string
	ReferenceID     string
	TransactionDate *time.Time // opcional; nil = now
}

// RecordTransaction ejecuta los pasos 1-6 como una unidad atómica contra el
// almacén (lock de fila, verificación de piso, upsert del nivel, append del
// libro mayor) y devuelve el registro confirmado. Tras el commit publica los
// eventos "inventory.changed" y, si aplica, "inventory.low_stock".
//
// Errores: ErrInvalidInput (entrada malformada), ErrNotFound (artículo,
// ubicación o usuario inexistente), ErrInsufficientStock (la salida dejaría
// la cantidad negativa), ErrConflict (contención detectada por el almacén).
func (uc *RecordTransactionUseCase) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*entity.StockTransaction, error) {
	if input.ItemID == "" || input.LocationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if input.ChangeQuantity == 0 {
		return nil, domain.ErrInvalidInput
	}
	if !entity.IsValidTransactionType(input.Type) {
		return nil, domain.ErrInvalidInput
	}

	// Referencias inmutables: deben existir antes de abrir la transacción.
	item, err := uc.itemRepo.GetByID(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	location, err := uc.locationRepo.GetByID(ctx, input.LocationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, domain.ErrNotFound
	}
	if input.UserID != "" {
		ok, err := uc.userRepo.Exists(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrNotFound
		}
	}

	now := time.Now()
	txDate := now
	if input.TransactionDate != nil {
		txDate = *input.TransactionDate
	}

	var (
		record   *entity.StockTransaction
		newLevel *entity.InventoryLevel
	)
	err = uc.txRunner.Run(ctx, func(
		levelRepo repository.InventoryLevelRepository,
		ledgerRepo repository.StockTransactionRepository,
	) error {
		// Bloquea la fila del nivel; ausencia = cantidad 0 (creación perezosa).
		level, err := levelRepo.GetForUpdate(ctx, input.ItemID, input.LocationID)
		if err != nil {
			return err
		}
		newQty := level.Quantity + input.ChangeQuantity
		// La cantidad nunca puede quedar negativa, sin importar el tipo.
		if newQty < 0 {
			return domain.ErrInsufficientStock
		}

		level.Quantity = newQty
		level.UpdatedAt = now
		if err := levelRepo.Upsert(ctx, level, input.ChangeQuantity > 0); err != nil {
			return err
		}

		record = &entity.StockTransaction{
			ItemID:            input.ItemID,
			LocationID:        input.LocationID,
			ChangeQuantity:    input.ChangeQuantity,
			ResultingQuantity: newQty,
			Type:              input.Type,
			UserID:            input.UserID,
			Notes:             input.Notes,
			ReferenceID:       input.ReferenceID,
			TransactionDate:   txDate,
			CreatedAt:         now,
		}
		if err := ledgerRepo.Create(ctx, record); err != nil {
			return err
		}
		newLevel = level
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Post-commit: mejor esfuerzo, nunca altera el resultado del caller.
	uc.notifyCommitted(ctx, record, newLevel)

	return record, nil
}

// notifyCommitted publica el evento de cambio y, si el artículo define umbral
// y la nueva cantidad lo alcanza o lo rompe, el evento de stock bajo.
// Los fallos del publicador se registran y se descartan: la transacción ya
// está confirmada y no puede revertirse.
func (uc *RecordTransactionUseCase) notifyCommitted(ctx context.Context, record *entity.StockTransaction, level *entity.InventoryLevel) {
	changed := InventoryChangedEvent{
		EventType:       EventTypeInventoryChanged,
		TransactionID:   record.ID,
		ItemID:          record.ItemID,
		LocationID:      record.LocationID,
		ChangeQuantity:  record.ChangeQuantity,
		NewQuantity:     level.Quantity,
		TransactionType: record.Type,
		UpdatedAt:       level.UpdatedAt,
	}
	uc.publish(ctx, TopicForItem(record.ItemID), changed)
	uc.publish(ctx, TopicForLocation(record.LocationID), changed)
	uc.publish(ctx, TopicAdmin, changed)

	// Relee el umbral tras el commit: el catálogo pudo cambiar durante la tx.
	item, err := uc.itemRepo.GetByID(ctx, record.ItemID)
	if err != nil {
		uc.log.Error().Err(err).Str("item_id", record.ItemID).
			Msg("no se pudo releer el umbral de stock bajo")
		return
	}
	if item == nil || item.LowStockThreshold == nil {
		return
	}
	if level.Quantity > *item.LowStockThreshold {
		return
	}
	low := LowStockEvent{
		EventType:  EventTypeLowStock,
		ItemID:     item.ID,
		SKU:        item.SKU,
		ItemName:   item.Name,
		LocationID: record.LocationID,
		Quantity:   level.Quantity,
		Threshold:  *item.LowStockThreshold,
	}
	uc.publish(ctx, TopicForItem(item.ID), low)
	uc.publish(ctx, TopicAdmin, low)
}

func (uc *RecordTransactionUseCase) publish(ctx context.Context, topic string, payload any) {
	if err := uc.publisher.Publish(ctx, topic, payload); err != nil {
		uc.log.Error().Err(err).Str("topic", topic).
			Msg("publicación de evento fallida; la transacción ya está confirmada")
	}
}
