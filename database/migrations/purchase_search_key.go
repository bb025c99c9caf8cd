package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/vendo/app/models"
	"github.com/shashiranjanraj/vendo/pkg/migration"
)

func init() {
	migration.Register("20260301000000_add_purchase_search_key", &AddPurchaseSearchKey{})
}

// AddPurchaseSearchKey adds the folded search column and fills it for rows
// written before it existed.
type AddPurchaseSearchKey struct{}

func (m *AddPurchaseSearchKey) Up(db *gorm.DB) error {
	if !db.Migrator().HasColumn(&models.Purchase{}, "SearchKey") {
		if err := db.Migrator().AddColumn(&models.Purchase{}, "SearchKey"); err != nil {
			return err
		}
	}

	var rows []models.Purchase
	return db.Model(&models.Purchase{}).
		Select("id", "product_id", "product_name").
		Where("search_key = '' OR search_key IS NULL").
		FindInBatches(&rows, 500, func(tx *gorm.DB, _ int) error {
			for _, p := range rows {
				key := models.PurchaseSearchKey(p.ProductID, p.ProductName)
				err := db.Model(&models.Purchase{}).Where("id = ?", p.ID).Update("search_key", key).Error
				if err != nil {
					return err
				}
			}
			return nil
		}).Error
}

func (m *AddPurchaseSearchKey) Down(db *gorm.DB) error {
	if !db.Migrator().HasColumn(&models.Purchase{}, "SearchKey") {
		return nil
	}
	return db.Migrator().DropColumn(&models.Purchase{}, "SearchKey")
}
