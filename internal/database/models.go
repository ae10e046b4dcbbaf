package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Cliente struct {
	ID            uuid.UUID `json:"id"`
	Nombre        string    `json:"nombre"`
	Domicilio     string    `json:"domicilio"`
	Celular       string    `json:"celular"`
	FechaRegistro time.Time `json:"fecha_registro"`
}

type Configuracion struct {
	ID          int64     `json:"id"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion"`
	CreatedAt   time.Time `json:"created_at"`
}

type IngredienteConfig struct {
	ID              int64  `json:"id"`
	ConfiguracionID int64  `json:"configuracion_id"`
	IngredienteID   int64  `json:"ingrediente_id"`
	Cantidad        int32  `json:"cantidad"`
	Unidad          string `json:"unidad"`
}

type IngredienteReceta struct {
	ID                int64  `json:"id"`
	RecetaID          int64  `json:"receta_id"`
	IngredienteID     int64  `json:"ingrediente_id"`
	CantidadNecesaria int32  `json:"cantidad_necesaria"`
	Unidad            string `json:"unidad"`
}

type Inventario struct {
	ID                 int64     `json:"id"`
	Nombre             string    `json:"nombre"`
	CantidadDisponible int32     `json:"cantidad_disponible"`
	UnidadMedida       string    `json:"unidad_medida"`
	FechaRegistro      time.Time `json:"fecha_registro"`
	FechaActualizacion time.Time `json:"fecha_actualizacion"`
}

type MenuItem struct {
	ID     int64          `json:"id"`
	Nombre string         `json:"nombre"`
	Precio pgtype.Numeric `json:"precio"`
	Tipo   string         `json:"tipo"`
}

type Mesa struct {
	Numero    int32 `json:"numero"`
	Capacidad int32 `json:"capacidad"`
	EsVirtual bool  `json:"es_virtual"`
}

type Pedido struct {
	ID               int64          `json:"id"`
	MesaNumero       int32          `json:"mesa_numero"`
	NumeroApp        pgtype.Int4    `json:"numero_app"`
	Items            []byte         `json:"items"`
	Estado           string         `json:"estado"`
	Notas            string         `json:"notas"`
	TamanoGrupo      int32          `json:"tamano_grupo"`
	ItemsDescontados int32          `json:"items_descontados"`
	MetodoPago       pgtype.Text    `json:"metodo_pago"`
	MontoRecibido    pgtype.Numeric `json:"monto_recibido"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type Receta struct {
	ID          int64     `json:"id"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion"`
	CreatedAt   time.Time `json:"created_at"`
}

type Usuario struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Nombre       string    `json:"nombre"`
	PasswordHash string    `json:"password_hash"`
	Rol          string    `json:"rol"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
