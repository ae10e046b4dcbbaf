package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusDraft       = "Tomando pedido"
	OrderStatusPending     = "Pendiente"
	OrderStatusPreparing   = "En preparacion"
	OrderStatusReady       = "Listo"
	OrderStatusDelivered   = "Entregado"
	OrderStatusPaid        = "Pagado"
	OrderStatusPreparingES = "En preparación" // accepted on input, never stored
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleWaiter  = "MESERO"
	UserRoleKitchen = "COCINA"
	UserRoleCashier = "CAJA"
)

const (
	PaymentMethodCash = "Efectivo"
	PaymentMethodCard = "Tarjeta"
	PaymentMethodQR   = "QR"
)

// ── Group B: Configurable labels (no DB constraint) ──

// DigitalTableNumber is the virtual table used for app orders.
const DigitalTableNumber = 99

const DefaultUnit = "unidad"

const (
	ReportDaily   = "diario"
	ReportWeekly  = "semanal"
	ReportMonthly = "mensual"
	ReportCustom  = "personalizado"
)

// Event topics double as WebSocket rooms and Redis channel suffixes.
const (
	TopicOrders    = "pedidos"
	TopicInventory = "inventario"
)

const (
	EventOrderCreated = "pedido.creado"
	EventOrderUpdated = "pedido.actualizado"
	EventOrderStatus  = "pedido.estado"
	EventOrderPaid    = "pedido.pagado"
	EventOrderDeleted = "pedido.eliminado"
	EventStockLow     = "inventario.stock_bajo"
	EventStockUpdated = "inventario.actualizado"
)
