package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/logger"
	"github.com/ougirez/hvac-catalog/internal/pkg/store/xpgx"
)

type deviceRow struct {
	ID              int64      `db:"id"`
	Manufacturer    string     `db:"manufacturer"`
	ModelIdentifier string     `db:"model_identifier"`
	MarketEntry     *time.Time `db:"market_entry"`
	MarketExit      *time.Time `db:"market_exit"`
	NoiseLevelDBA   *float64   `db:"noise_level_dba"`
	PriceAmount     *float64   `db:"price_amount"`
	PriceCurrency   *string    `db:"price_currency"`
	DataSource      *string    `db:"data_source"`
	DeviceFamily    string     `db:"device_family"`
	CustomFields    []byte     `db:"custom_fields"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (r *deviceRow) toDomain() (*domain.Device, error) {
	d := domain.NewDevice(domain.EntityKind(r.DeviceFamily))
	d.ID = r.ID
	d.Manufacturer = r.Manufacturer
	d.ModelIdentifier = r.ModelIdentifier
	d.MarketEntry = datePtr(r.MarketEntry)
	d.MarketExit = datePtr(r.MarketExit)
	d.NoiseLevelDBA = r.NoiseLevelDBA
	d.PriceAmount = r.PriceAmount
	d.PriceCurrency = r.PriceCurrency
	d.DataSource = r.DataSource
	d.CreatedAt = r.CreatedAt
	d.UpdatedAt = r.UpdatedAt

	if len(r.CustomFields) > 0 {
		if err := sonic.Unmarshal(r.CustomFields, &d.CustomFields); err != nil {
			return nil, fmt.Errorf("decode custom_fields of device %d: %w", r.ID, err)
		}
	}
	return d, nil
}

func datePtr(t *time.Time) *domain.Date {
	if t == nil {
		return nil
	}
	d := domain.NewDate(*t)
	return &d
}

// CreateDevice writes the base record and its subtype row in one
// transaction and returns the new id.
func (s *store) CreateDevice(ctx context.Context, device *domain.Device) (int64, error) {
	codec, err := s.codec(device.DeviceFamily)
	if err != nil {
		return 0, err
	}

	custom := "{}"
	if len(device.CustomFields) > 0 {
		custom, err = sonic.MarshalString(device.CustomFields)
		if err != nil {
			return 0, fmt.Errorf("encode custom_fields: %w", err)
		}
	}

	baseQuery := builder().Insert(tableDevices).
		Columns(
			"manufacturer", "model_identifier", "market_entry", "market_exit",
			"noise_level_dba", "price_amount", "price_currency", "data_source",
			"device_family", "custom_fields",
		).
		Values(
			device.Manufacturer, device.ModelIdentifier, dateArg(device.MarketEntry), dateArg(device.MarketExit),
			device.NoiseLevelDBA, device.PriceAmount, device.PriceCurrency, device.DataSource,
			device.DeviceFamily.String(), custom,
		).
		Suffix("RETURNING id, created_at, updated_at")

	var id int64
	err = s.pool.InTx(ctx, func(tx xpgx.Conn) error {
		row, err := tx.Rowx(ctx, baseQuery)
		if err != nil {
			return err
		}
		if err = row.Scan(&id, &device.CreatedAt, &device.UpdatedAt); err != nil {
			return fmt.Errorf("insert device: %w", wrapErr(err))
		}

		subQuery, err := codec.insert(id, device.Attributes)
		if err != nil {
			return err
		}
		if _, err = tx.Execx(ctx, subQuery); err != nil {
			return fmt.Errorf("insert %s: %w", device.DeviceFamily, wrapErr(err))
		}
		return nil
	})
	if err != nil {
		logger.Debugf(ctx, "CreateDevice %s %q: %s", device.DeviceFamily, device.ModelIdentifier, err.Error())
		return 0, err
	}

	device.ID = id
	return id, nil
}

// GetDevice loads a device with the attributes of its subtype decoded.
func (s *store) GetDevice(ctx context.Context, id int64) (*domain.Device, error) {
	query := builder().Select(deviceColumns...).
		From(tableDevices).
		Where(squirrel.Eq{"id": id})

	selected, err := xpgx.Getx[deviceRow](ctx, s.pool.Conn, query)
	if err != nil {
		return nil, wrapErr(err)
	}

	device, err := selected.toDomain()
	if err != nil {
		return nil, err
	}

	codec, err := s.codec(device.DeviceFamily)
	if err != nil {
		logger.Warnf(ctx, "device %d has unknown family %q", id, device.DeviceFamily)
		return device, nil
	}

	rows, err := s.pool.Rowsx(ctx, codec.selectQuery(id))
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", device.DeviceFamily, err)
	}
	raw, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) ([]any, error) {
		return row.Values()
	})
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", device.DeviceFamily, wrapErr(err))
	}

	device.Attributes = codec.decode(raw)
	return device, nil
}
