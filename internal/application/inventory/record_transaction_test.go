package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

const (
	testItemID     = "11111111-1111-1111-1111-111111111111"
	testLocationID = "22222222-2222-2222-2222-222222222222"
	testUserID     = "33333333-3333-3333-3333-333333333333"
)

// engineFixture agrupa el motor con todas sus dependencias fake.
type engineFixture struct {
	store     *memStore
	runner    *memTxRunner
	catalog   *memCatalog
	publisher *capturePublisher
	engine    *inventory.RecordTransactionUseCase
}

func newEngineFixture(threshold *int64) *engineFixture {
	store := newMemStore()
	runner := &memTxRunner{store: store}
	catalog := newMemCatalog()
	catalog.addItem(testItemID, "SKU-001", "Tornillo M8", threshold)
	catalog.addLocation(testLocationID, "Bodega Central")
	catalog.users[testUserID] = true
	publisher := &capturePublisher{}

	engine := inventory.NewRecordTransactionUseCase(
		runner,
		&memItemRepo{cat: catalog},
		&memLocationRepo{cat: catalog},
		&memUserRepo{cat: catalog},
		publisher,
		logger.Nop(),
	)
	return &engineFixture{store: store, runner: runner, catalog: catalog, publisher: publisher, engine: engine}
}

func validInput() inventory.RecordTransactionInput {
	return inventory.RecordTransactionInput{
		ItemID:         testItemID,
		LocationID:     testLocationID,
		ChangeQuantity: 50,
		Type:           entity.TxTypePurchaseReceiving,
		UserID:         testUserID,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo feliz: entradas y salidas
// ──────────────────────────────────────────────────────────────────────────────

// Una entrada sobre un par sin nivel previo lo crea con la cantidad recibida.
func TestRecordTransaction_EntradaCreaNivel(t *testing.T) {
	f := newEngineFixture(nil)

	record, err := f.engine.RecordTransaction(context.Background(), validInput())
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.NotEmpty(t, record.ID, "el registro confirmado debe tener ID asignado")
	assert.Equal(t, int64(50), record.ChangeQuantity)
	assert.Equal(t, int64(50), record.ResultingQuantity,
		"partiendo de 0 (creación perezosa), +50 debe resultar en 50")
	assert.Equal(t, entity.TxTypePurchaseReceiving, record.Type)

	qty, ok := f.store.levelQuantity(testItemID, testLocationID)
	require.True(t, ok, "el nivel debe haberse creado")
	assert.Equal(t, int64(50), qty)
	assert.Equal(t, 1, f.store.ledgerLen(), "una fila de libro mayor por invocación exitosa")
}

// Una salida descuenta del nivel existente.
func TestRecordTransaction_SalidaDescuenta(t *testing.T) {
	f := newEngineFixture(nil)
	f.store.seedLevel(testItemID, testLocationID, 50)

	in := validInput()
	in.ChangeQuantity = -10
	in.Type = entity.TxTypeSalesShipment

	record, err := f.engine.RecordTransaction(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, int64(-10), record.ChangeQuantity)
	assert.Equal(t, int64(40), record.ResultingQuantity)

	qty, _ := f.store.levelQuantity(testItemID, testLocationID)
	assert.Equal(t, int64(40), qty)
}

// La entrada marca LastRestockedAt; la salida no lo toca.
func TestRecordTransaction_EntradaMarcaRestock(t *testing.T) {
	f := newEngineFixture(nil)

	_, err := f.engine.RecordTransaction(context.Background(), validInput())
	require.NoError(t, err)

	f.store.mu.Lock()
	level := f.store.levels[keyOf(testItemID, testLocationID)]
	f.store.mu.Unlock()
	require.NotNil(t, level)
	assert.NotNil(t, level.LastRestockedAt, "una entrada debe fijar last_restocked_at")

	in := validInput()
	in.ChangeQuantity = -5
	in.Type = entity.TxTypeSalesShipment
	_, err = f.engine.RecordTransaction(context.Background(), in)
	require.NoError(t, err)

	f.store.mu.Lock()
	after := f.store.levels[keyOf(testItemID, testLocationID)]
	f.store.mu.Unlock()
	require.NotNil(t, after.LastRestockedAt)
	assert.Equal(t, *level.LastRestockedAt, *after.LastRestockedAt,
		"una salida no debe mover last_restocked_at")
}

// La fecha lógica puede ser retroactiva y se conserva tal cual.
func TestRecordTransaction_FechaRetroactiva(t *testing.T) {
	f := newEngineFixture(nil)
	past := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	in := validInput()
	in.TransactionDate = &past

	record, err := f.engine.RecordTransaction(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, past, record.TransactionDate)
	assert.True(t, record.CreatedAt.After(past), "created_at es la fecha física de inserción")
}

// UserID vacío significa "sistema": se omite la verificación de usuario.
func TestRecordTransaction_UserIDVacioEsSistema(t *testing.T) {
	f := newEngineFixture(nil)

	in := validInput()
	in.UserID = ""

	record, err := f.engine.RecordTransaction(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, record.UserID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Piso de cantidad y atomicidad
// ──────────────────────────────────────────────────────────────────────────────

// Una salida que dejaría la cantidad negativa se rechaza completa: ni nivel
// mutado ni fila de libro mayor ni eventos.
func TestRecordTransaction_StockInsuficiente(t *testing.T) {
	f := newEngineFixture(nil)
	f.store.seedLevel(testItemID, testLocationID, 5)

	in := validInput()
	in.ChangeQuantity = -10
	in.Type = entity.TxTypeSalesShipment

	record, err := f.engine.RecordTransaction(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, record)

	qty, _ := f.store.levelQuantity(testItemID, testLocationID)
	assert.Equal(t, int64(5), qty, "la cantidad no debe haberse tocado")
	assert.Equal(t, 0, f.store.ledgerLen(), "no debe quedar rastro en el libro mayor")
	assert.Empty(t, f.publisher.all(), "ninguna notificación sin commit")
}

// El piso aplica sin importar el tipo: un ajuste de entrada con cantidad
// negativa que rompa el piso también se rechaza.
func TestRecordTransaction_PisoAplicaATodosLosTipos(t *testing.T) {
	f := newEngineFixture(nil)
	f.store.seedLevel(testItemID, testLocationID, 3)

	in := validInput()
	in.ChangeQuantity = -5
	in.Type = entity.TxTypeAdjustmentIn // tipo de entrada, cantidad negativa

	_, err := f.engine.RecordTransaction(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// Si el append del libro mayor falla, el upsert del nivel se revierte con él.
func TestRecordTransaction_AtomicidadAnteFalloDelLibroMayor(t *testing.T) {
	f := newEngineFixture(nil)
	f.store.seedLevel(testItemID, testLocationID, 50)
	f.runner.ledgerErr = errors.New("disco lleno")

	in := validInput()
	in.ChangeQuantity = -10
	in.Type = entity.TxTypeSalesShipment

	_, err := f.engine.RecordTransaction(context.Background(), in)
	require.Error(t, err)

	qty, _ := f.store.levelQuantity(testItemID, testLocationID)
	assert.Equal(t, int64(50), qty, "rollback completo: el nivel conserva su valor")
	assert.Equal(t, 0, f.store.ledgerLen())
	assert.Empty(t, f.publisher.all())
}

// N decrementos concurrentes que en conjunto exceden el stock: exactamente los
// que caben tienen éxito y la cantidad final nunca baja de cero.
func TestRecordTransaction_DecrementosConcurrentes(t *testing.T) {
	f := newEngineFixture(nil)
	f.store.seedLevel(testItemID, testLocationID, 5)

	const workers = 6 // uno más de los que caben
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := validInput()
			in.ChangeQuantity = -1
			in.Type = entity.TxTypeSalesShipment
			_, errs[i] = f.engine.RecordTransaction(context.Background(), in)
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 5, ok, "deben confirmarse exactamente 5 decrementos")
	assert.Equal(t, 1, insufficient, "el sexto debe rechazarse por stock insuficiente")

	qty, _ := f.store.levelQuantity(testItemID, testLocationID)
	assert.Equal(t, int64(0), qty)
	assert.Equal(t, 5, f.store.ledgerLen())
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación de entrada y referencias
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordTransaction_EntradaInvalida(t *testing.T) {
	f := newEngineFixture(nil)

	cases := []struct {
		name   string
		mutate func(*inventory.RecordTransactionInput)
	}{
		{"item vacío", func(in *inventory.RecordTransactionInput) { in.ItemID = "" }},
		{"ubicación vacía", func(in *inventory.RecordTransactionInput) { in.LocationID = "" }},
		{"cantidad cero", func(in *inventory.RecordTransactionInput) { in.ChangeQuantity = 0 }},
		{"tipo desconocido", func(in *inventory.RecordTransactionInput) { in.Type = "DONATION" }},
		{"tipo vacío", func(in *inventory.RecordTransactionInput) { in.Type = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := f.engine.RecordTransaction(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, 0, f.store.ledgerLen(), "ninguna entrada inválida debe tocar el almacén")
}

func TestRecordTransaction_ReferenciasInexistentes(t *testing.T) {
	f := newEngineFixture(nil)

	cases := []struct {
		name   string
		mutate func(*inventory.RecordTransactionInput)
	}{
		{"artículo inexistente", func(in *inventory.RecordTransactionInput) { in.ItemID = "no-existe" }},
		{"ubicación inexistente", func(in *inventory.RecordTransactionInput) { in.LocationID = "no-existe" }},
		{"usuario inexistente", func(in *inventory.RecordTransactionInput) { in.UserID = "no-existe" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := f.engine.RecordTransaction(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Notificaciones post-commit
// ──────────────────────────────────────────────────────────────────────────────

// Tras el commit se publica el evento de cambio en los tres topics.
func TestRecordTransaction_PublicaCambioEnTresTopics(t *testing.T) {
	f := newEngineFixture(nil)

	record, err := f.engine.RecordTransaction(context.Background(), validInput())
	require.NoError(t, err)

	topics := f.publisher.topics()
	assert.Contains(t, topics, inventory.TopicForItem(testItemID))
	assert.Contains(t, topics, inventory.TopicForLocation(testLocationID))
	assert.Contains(t, topics, inventory.TopicAdmin)
	assert.Len(t, topics, 3, "sin umbral definido solo hay eventos de cambio")

	changed, ok := f.publisher.all()[0].Payload.(inventory.InventoryChangedEvent)
	require.True(t, ok)
	assert.Equal(t, inventory.EventTypeInventoryChanged, changed.EventType)
	assert.Equal(t, record.ID, changed.TransactionID)
	assert.Equal(t, int64(50), changed.NewQuantity)
}

// Si la nueva cantidad queda en o por debajo del umbral, se publica además el
// evento de stock bajo (topic del artículo + admin).
func TestRecordTransaction_EventoStockBajo(t *testing.T) {
	threshold := int64(10)
	f := newEngineFixture(&threshold)
	f.store.seedLevel(testItemID, testLocationID, 18)

	in := validInput()
	in.ChangeQuantity = -10
	in.Type = entity.TxTypeSalesShipment

	_, err := f.engine.RecordTransaction(context.Background(), in)
	require.NoError(t, err)

	var lows []inventory.LowStockEvent
	for _, e := range f.publisher.all() {
		if low, ok := e.Payload.(inventory.LowStockEvent); ok {
			lows = append(lows, low)
		}
	}
	require.Len(t, lows, 2, "stock bajo se difunde al topic del artículo y al admin")
	assert.Equal(t, inventory.EventTypeLowStock, lows[0].EventType)
	assert.Equal(t, int64(8), lows[0].Quantity)
	assert.Equal(t, threshold, lows[0].Threshold)
	assert.Equal(t, "SKU-001", lows[0].SKU)
}

// Por encima del umbral no hay evento de stock bajo.
func TestRecordTransaction_SinEventoStockBajoSobreUmbral(t *testing.T) {
	threshold := int64(10)
	f := newEngineFixture(&threshold)
	f.store.seedLevel(testItemID, testLocationID, 18)

	in := validInput()
	in.ChangeQuantity = -6
	in.Type = entity.TxTypeSalesShipment

	_, err := f.engine.RecordTransaction(context.Background(), in)
	require.NoError(t, err)

	for _, e := range f.publisher.all() {
		_, isLow := e.Payload.(inventory.LowStockEvent)
		assert.False(t, isLow, "con cantidad 12 > umbral 10 no debe haber evento de stock bajo")
	}
}

// El fallo del publicador se registra y se descarta: el caller recibe el
// registro confirmado igualmente.
func TestRecordTransaction_FalloDelPublicadorNoAfectaAlCaller(t *testing.T) {
	f := newEngineFixture(nil)
	f.publisher.err = errors.New("broker caído")

	record, err := f.engine.RecordTransaction(context.Background(), validInput())
	require.NoError(t, err, "la transacción ya está confirmada: el error del broker no se propaga")
	require.NotNil(t, record)

	qty, _ := f.store.levelQuantity(testItemID, testLocationID)
	assert.Equal(t, int64(50), qty)
	assert.Equal(t, 1, f.store.ledgerLen())
}
