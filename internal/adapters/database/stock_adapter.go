package database

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/entities"
	"github.com/venomx/AntivenomFinder/backend/internal/domain/repositories"
	"github.com/venomx/AntivenomFinder/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/venomx/AntivenomFinder/backend/pkg/errors"
)

// StockAdapter implements the StockRepository interface on PostgreSQL.
// All stock queries exclude zero-quantity and expired entries at the SQL
// level, so callers only ever see inventory that can actually be dispensed.
type StockAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.StockRepository = (*StockAdapter)(nil)

// NewStockAdapter creates a new stock adapter
func NewStockAdapter(client *postgres.Client) *StockAdapter {
	return &StockAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func facilityColumns() []interface{} {
	return []interface{}{
		goqu.I("f.facility_id"),
		goqu.I("f.facility_name"),
		goqu.I("f.facility_type"),
		goqu.I("f.region"),
		goqu.I("f.province"),
		goqu.I("f.city_municipality"),
		goqu.I("f.address"),
		goqu.I("f.latitude"),
		goqu.I("f.longitude"),
		goqu.I("f.contact_number"),
		goqu.I("f.facility_email"),
		goqu.I("f.image_url"),
	}
}

func stockColumns() []interface{} {
	return append(facilityColumns(),
		goqu.I("av.antivenom_id"),
		goqu.I("av.product_name"),
		goqu.I("av.manufacturer"),
		goqu.I("fas.quantity"),
		goqu.I("fas.expiration_date"),
		goqu.I("fas.batch_no"),
	)
}

// availableStock joins facilities to their usable antivenom inventory.
func (a *StockAdapter) availableStock() *goqu.SelectDataset {
	return a.db.From(goqu.T("facilities").As("f")).
		InnerJoin(
			goqu.T("facility_antivenom_stock").As("fas"),
			goqu.On(goqu.I("fas.facility_id").Eq(goqu.I("f.facility_id"))),
		).
		InnerJoin(
			goqu.T("antivenoms").As("av"),
			goqu.On(goqu.I("av.antivenom_id").Eq(goqu.I("fas.antivenom_id"))),
		).
		Where(
			goqu.I("fas.quantity").Gt(0),
			goqu.Or(
				goqu.Ex{"fas.expiration_date": nil},
				goqu.I("fas.expiration_date").Gt(goqu.L("CURRENT_DATE")),
			),
		)
}

// FindStockBySnakeID returns stock rows for antivenoms targeting the snake
func (a *StockAdapter) FindStockBySnakeID(ctx context.Context, snakeID int) ([]entities.StockRecord, error) {
	query, args, err := a.availableStock().
		InnerJoin(
			goqu.T("antivenom_snake_targets").As("ast"),
			goqu.On(goqu.I("ast.antivenom_id").Eq(goqu.I("av.antivenom_id"))),
		).
		Select(stockColumns()...).
		Where(goqu.Ex{"ast.snake_id": snakeID}).
		Order(goqu.I("f.facility_name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build stock query", err)
	}

	return a.queryStockRecords(ctx, query, args...)
}

// FindStockByAntivenomType returns stock rows for a type (polyvalent/monovalent)
func (a *StockAdapter) FindStockByAntivenomType(ctx context.Context, antivenomType string) ([]entities.StockRecord, error) {
	query, args, err := a.availableStock().
		InnerJoin(
			goqu.T("antivenom_types").As("at"),
			goqu.On(goqu.I("at.antivenom_type_id").Eq(goqu.I("av.antivenom_type_id"))),
		).
		Select(stockColumns()...).
		Where(goqu.Func("LOWER", goqu.I("at.type_name")).Eq(strings.ToLower(antivenomType))).
		Order(goqu.I("f.facility_name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build stock query", err)
	}

	return a.queryStockRecords(ctx, query, args...)
}

// FindStockByAntivenomName returns stock rows whose product name contains the
// given fragment, case-insensitively, with the list of snake species each
// product targets aggregated per row.
func (a *StockAdapter) FindStockByAntivenomName(ctx context.Context, name string) ([]entities.StockRecord, error) {
	columns := append(stockColumns(),
		goqu.L("ARRAY_AGG(DISTINCT s.scientific_name)").As("target_snakes"),
	)

	query, args, err := a.availableStock().
		InnerJoin(
			goqu.T("antivenom_snake_targets").As("ast"),
			goqu.On(goqu.I("ast.antivenom_id").Eq(goqu.I("av.antivenom_id"))),
		).
		InnerJoin(
			goqu.T("snakes").As("s"),
			goqu.On(goqu.I("s.snake_id").Eq(goqu.I("ast.snake_id"))),
		).
		Select(columns...).
		Where(goqu.I("av.product_name").ILike("%" + name + "%")).
		GroupBy(stockColumns()...).
		Order(goqu.I("f.facility_name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build stock query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query stock by antivenom name", err)
	}
	defer rows.Close()

	records := []entities.StockRecord{}
	for rows.Next() {
		var record entities.StockRecord
		var targetSnakes pq.StringArray
		if err := scanStockRecord(rows, &record, &targetSnakes); err != nil {
			return nil, apperrors.NewInternalError("failed to scan stock row", err)
		}
		record.Stock.TargetSnakes = []string(targetSnakes)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating stock rows", err)
	}

	return records, nil
}

// FindAllFacilities returns every facility regardless of stock
func (a *StockAdapter) FindAllFacilities(ctx context.Context) ([]entities.Facility, error) {
	query, args, err := a.db.From(goqu.T("facilities").As("f")).
		Select(facilityColumns()...).
		Order(goqu.I("f.facility_name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build facility query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query facilities", err)
	}
	defer rows.Close()

	facilities := []entities.Facility{}
	for rows.Next() {
		var facility entities.Facility
		if err := scanFacility(rows, &facility); err != nil {
			return nil, apperrors.NewInternalError("failed to scan facility", err)
		}
		facilities = append(facilities, facility)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating facilities", err)
	}

	return facilities, nil
}

func (a *StockAdapter) queryStockRecords(ctx context.Context, query string, args ...interface{}) ([]entities.StockRecord, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query stock", err)
	}
	defer rows.Close()

	records := []entities.StockRecord{}
	for rows.Next() {
		var record entities.StockRecord
		if err := scanStockRecord(rows, &record); err != nil {
			return nil, apperrors.NewInternalError("failed to scan stock row", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating stock rows", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFacility(row rowScanner, facility *entities.Facility) error {
	return row.Scan(
		&facility.ID,
		&facility.Name,
		&facility.FacilityType,
		&facility.Region,
		&facility.Province,
		&facility.CityMunicipality,
		&facility.Address,
		&facility.Latitude,
		&facility.Longitude,
		&facility.ContactNumber,
		&facility.Email,
		&facility.ImageURL,
	)
}

func scanStockRecord(row rowScanner, record *entities.StockRecord, extra ...interface{}) error {
	dest := []interface{}{
		&record.Facility.ID,
		&record.Facility.Name,
		&record.Facility.FacilityType,
		&record.Facility.Region,
		&record.Facility.Province,
		&record.Facility.CityMunicipality,
		&record.Facility.Address,
		&record.Facility.Latitude,
		&record.Facility.Longitude,
		&record.Facility.ContactNumber,
		&record.Facility.Email,
		&record.Facility.ImageURL,
		&record.Stock.AntivenomID,
		&record.Stock.Name,
		&record.Stock.Manufacturer,
		&record.Stock.Quantity,
		&record.Stock.ExpirationDate,
		&record.Stock.BatchNo,
	}
	dest = append(dest, extra...)
	return row.Scan(dest...)
}
