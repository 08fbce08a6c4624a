package models

import (
	"time"

	"gorm.io/datatypes"
)

type Category struct {
	ID          uint   `json:"categoria_id" gorm:"column:categoria_id;primaryKey"`
	Name        string `json:"nombre" gorm:"column:nombre;not null"`
	Description string `json:"descripcion" gorm:"column:descripcion;type:text"`
}

func (Category) TableName() string {
	return "categoria"
}

type Subcategory struct {
	ID          uint   `json:"subcategoria_id" gorm:"column:subcategoria_id;primaryKey"`
	Name        string `json:"nombre" gorm:"column:nombre;not null"`
	Description string `json:"descripcion" gorm:"column:descripcion;type:text"`
	CategoryID  uint   `json:"categoria_id" gorm:"column:categoria_id;index;not null"`
}

func (Subcategory) TableName() string {
	return "subcategoria"
}

// Event clusters articles about one real-world happening. Keywords and
// Context are produced by the ingestion pipeline and stored as JSON.
type Event struct {
	ID            uint           `json:"evento_id" gorm:"column:evento_id;primaryKey"`
	Title         string         `json:"titulo" gorm:"column:titulo;not null"`
	Description   string         `json:"descripcion" gorm:"column:descripcion;type:text"`
	Date          *time.Time     `json:"fecha_evento" gorm:"column:fecha_evento"`
	SubcategoryID uint           `json:"subcategoria_id" gorm:"column:subcategoria_id;index;not null"`
	Importance    *float64       `json:"importancia,omitempty" gorm:"column:importancia"`
	Keywords      datatypes.JSON `json:"palabras_clave,omitempty" gorm:"column:palabras_clave"`
	Context       datatypes.JSON `json:"contexto,omitempty" gorm:"column:contexto"`
}

func (Event) TableName() string {
	return "evento"
}

// Article is a single published news item. PublishedAt is the timestamp
// used for time-window membership.
type Article struct {
	ID          uint       `json:"id" gorm:"column:articulo_id;primaryKey"`
	Headline    string     `json:"titular" gorm:"column:titular;not null"`
	Subheadline string     `json:"subtitular" gorm:"column:subtitular;type:text"`
	URL         string     `json:"url" gorm:"column:url"`
	Paywall     bool       `json:"paywall" gorm:"column:paywall;default:false"`
	PublishedAt time.Time  `json:"fecha_publicacion" gorm:"column:fecha_publicacion;index"`
	UpdatedAt   *time.Time `json:"fecha_actualizacion" gorm:"column:fecha_actualizacion;autoUpdateTime:false"`
	Summary     string     `json:"gpt_resumen" gorm:"column:gpt_resumen;type:text"`
	Opinion     string     `json:"gpt_opinion" gorm:"column:gpt_opinion;type:text"`
	NewspaperID *uint      `json:"periodico_id" gorm:"column:periodico_id;index"`

	Newspaper *Newspaper `json:"periodico,omitempty" gorm:"foreignKey:NewspaperID;references:ID"`
}

func (Article) TableName() string {
	return "articulo"
}

type Newspaper struct {
	ID      uint   `json:"periodico_id" gorm:"column:periodico_id;primaryKey"`
	Name    string `json:"nombre" gorm:"column:nombre;not null"`
	LogoURL string `json:"logo_url" gorm:"column:logo_url"`
}

func (Newspaper) TableName() string {
	return "periodico"
}

// ArticleEvent links an article to an event. The same pair may appear more
// than once with different cluster ids.
type ArticleEvent struct {
	ID                 uint   `json:"id" gorm:"primaryKey"`
	ArticleID          uint   `json:"articulo_id" gorm:"column:articulo_id;index;not null"`
	EventID            uint   `json:"evento_id" gorm:"column:evento_id;index;not null"`
	ClusterID          *int   `json:"cluster_id" gorm:"column:cluster_id"`
	ClusterDescription string `json:"cluster_descripcion" gorm:"column:cluster_descripcion"`
}

func (ArticleEvent) TableName() string {
	return "articulo_evento"
}

// All lists every model, in dependency order, for migrations and seeding.
func All() []interface{} {
	return []interface{}{
		&Category{},
		&Subcategory{},
		&Newspaper{},
		&Event{},
		&Article{},
		&ArticleEvent{},
	}
}
