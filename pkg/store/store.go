// Package store serves every record kind as a plain REST resource backed by
// gorm: list with equality filters, get, create, full replace and delete.
package store

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"unicode"

	"library_admin/pkg/models"
	"library_admin/pkg/schema"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type stored[T any] interface {
	*T
	SetID(id string)
}

type resource[T any, P stored[T]] struct {
	db   *gorm.DB
	desc *schema.Descriptor
}

func register[T any, P stored[T]](r gin.IRouter, db *gorm.DB, kind schema.Kind) {
	res := resource[T, P]{db: db, desc: schema.MustLookup(kind)}
	r.GET(res.desc.Path, res.list)
	r.POST(res.desc.Path, res.create)
	r.GET(res.desc.Path+"/:id", res.get)
	r.PUT(res.desc.Path+"/:id", res.update)
	r.DELETE(res.desc.Path+"/:id", res.delete)
}

// Register mounts a resource for every kind on r.
func Register(r gin.IRouter, db *gorm.DB) {
	register[models.User](r, db, schema.User)
	register[models.Book](r, db, schema.Book)
	register[models.Author](r, db, schema.Author)
	register[models.Publisher](r, db, schema.Publisher)
	register[models.Category](r, db, schema.Category)
	register[models.Language](r, db, schema.Language)
	register[models.Location](r, db, schema.Location)
	register[models.Copy](r, db, schema.Copy)
	register[models.Loan](r, db, schema.Loan)
	register[models.Reservation](r, db, schema.Reservation)
	register[models.Fine](r, db, schema.Fine)
	register[models.Review](r, db, schema.Review)
}

// Router returns the full store server: every resource plus health.
func Router(db *gorm.DB) *gin.Engine {
	r := gin.Default()
	Register(r, db)
	r.GET("/manage/health", healthCheck(db))
	return r
}

func (res resource[T, P]) list(c *gin.Context) {
	query := res.db
	for key, values := range c.Request.URL.Query() {
		if key != "id" {
			if _, ok := res.desc.Field(key); !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown filter field %q", key)})
				return
			}
		}
		query = query.Where(fmt.Sprintf("%s IN ?", res.column(key)), values)
	}

	items := make([]T, 0)
	if err := query.Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (res resource[T, P]) get(c *gin.Context) {
	var item T
	if err := res.db.Where("id = ?", c.Param("id")).First(&item).Error; err != nil {
		res.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (res resource[T, P]) create(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	P(&item).SetID("")
	if err := res.db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (res resource[T, P]) update(c *gin.Context) {
	id := c.Param("id")
	var existing T
	if err := res.db.Where("id = ?", id).First(&existing).Error; err != nil {
		res.fail(c, err)
		return
	}

	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	P(&item).SetID(id)
	if err := res.db.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (res resource[T, P]) delete(c *gin.Context) {
	result := res.db.Where("id = ?", c.Param("id")).Delete(P(new(T)))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%s not found", res.desc.Kind)})
		return
	}
	c.Status(http.StatusNoContent)
}

func (res resource[T, P]) fail(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%s not found", res.desc.Kind)})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// column maps a JSON field name to its column: "fullName" is "full_name".
func (res resource[T, P]) column(field string) string {
	if field == "" {
		return field
	}
	runes := []rune(field)
	runes[0] = unicode.ToUpper(runes[0])
	return res.db.NamingStrategy.ColumnName("", string(runes))
}

// healthCheck reports the driver and how many record tables exist. The
// store is DOWN when the database does not answer or a table is missing.
func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"driver": db.Dialector.Name()}
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			status["status"] = "DOWN"
			status["error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}

		all := models.All()
		var missing []string
		for _, m := range all {
			if !db.Migrator().HasTable(m) {
				missing = append(missing, fmt.Sprintf("%T", m))
			}
		}
		status["kinds"] = len(all) - len(missing)
		if len(missing) > 0 {
			status["status"] = "DOWN"
			status["missing"] = missing
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "UP"
		c.JSON(http.StatusOK, status)
	}
}

// Seed creates the default administrator when no user named admin exists.
func Seed(db *gorm.DB) error {
	var admin models.User
	err := db.Where("username = ?", "admin").First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	admin = models.User{
		Username: "admin",
		Password: "123",
		FullName: "Administrator",
		Email:    "admin@library.local",
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Printf("Created default user %s", admin.Username)
	return nil
}
