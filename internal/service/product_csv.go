package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Column names of the product spreadsheet
const (
	colCode         = "id"
	colName         = "nome"
	colCategory     = "categoria"
	colUnit         = "unidade_medida"
	colCost         = "preco_compra_fardo"
	colPackPrice    = "preco_venda_fardo"
	colUnitsPerPack = "unidades_por_fardo"
	colStock        = "estoque_fardo"
)

var csvHeader = []string{colCode, colName, colCategory, colUnit, colCost, colPackPrice, colUnitsPerPack, colStock}

var ErrInvalidCSV = errors.New("invalid product csv")

type ImportResult struct {
	Created int          `json:"created"`
	Updated int          `json:"updated"`
	Skipped []ImportSkip `json:"skipped"`
}

type ImportSkip struct {
	Line   int    `json:"line"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// productRow is one parsed spreadsheet line
type productRow struct {
	line          int
	code          string
	name          string
	category      string
	unitOfMeasure string
	cost          decimal.Decimal
	packPrice     decimal.Decimal
	unitsPerPack  int
	stock         int
}

// parseProductCSV maps columns by header name. Malformed numbers read as 0,
// and units per pack as 1.
func parseProductCSV(data []byte) ([]productRow, []ImportSkip, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if firstLine, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		r.Comma = ';'
	}

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colCode, colName} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("%w: missing column %q", ErrInvalidCSV, required)
		}
	}

	var (
		rows    []productRow
		skipped []ImportSkip
	)
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %v", ErrInvalidCSV, line, err)
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := productRow{
			line:          line,
			code:          field(colCode),
			name:          field(colName),
			category:      field(colCategory),
			unitOfMeasure: field(colUnit),
			cost:          parseMoney(field(colCost)),
			packPrice:     parseMoney(field(colPackPrice)),
			unitsPerPack:  parseCount(field(colUnitsPerPack)),
			stock:         parseCount(field(colStock)),
		}
		if row.unitsPerPack < 1 {
			row.unitsPerPack = 1
		}
		if row.code == "" && row.name == "" {
			continue
		}
		if row.code == "" || row.name == "" {
			skipped = append(skipped, ImportSkip{Line: line, Code: row.code, Reason: "id and nome are required"})
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func parseMoney(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if strings.Contains(s, ",") {
		// 1.234,56
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(2)
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ImportCSV upserts products by code in one transaction. Stock differences
// are journalled as import movements.
func (s *inventoryService) ImportCSV(data []byte, actor Actor) (*ImportResult, error) {
	rows, skipped, err := parseProductCSV(data)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Skipped: skipped}
	var touched []model.Product
	err = s.db.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		movementRepo := s.movementRepo.WithTx(tx)

		for _, row := range rows {
			existing, err := productRepo.FindByCode(row.code)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			var product model.Product
			if existing == nil {
				product = model.Product{Code: row.code}
				product.CreatedBy = actor.ID
			} else {
				locked, err := productRepo.LockByIDs([]uuid.UUID{existing.ID}, false)
				if err != nil {
					return err
				}
				if len(locked) == 0 {
					return ErrProductNotFound
				}
				product = locked[0]
				if row.stock < product.Reserved {
					result.Skipped = append(result.Skipped, ImportSkip{
						Line:   row.line,
						Code:   row.code,
						Reason: fmt.Sprintf("stock %d below reserved %d", row.stock, product.Reserved),
					})
					continue
				}
			}

			stockDelta := row.stock - product.Stock
			product.Name = row.name
			product.Category = row.category
			product.UnitOfMeasure = row.unitOfMeasure
			product.Cost = row.cost
			product.PackPrice = row.packPrice
			product.UnitsPerPack = row.unitsPerPack
			product.Stock = row.stock
			product.UpdatedBy = actor.ID

			if existing == nil {
				taken, err := productRepo.CodeTaken(row.code, uuid.Nil)
				if err != nil {
					return err
				}
				if taken {
					result.Skipped = append(result.Skipped, ImportSkip{Line: row.line, Code: row.code, Reason: "code belongs to a deleted product"})
					continue
				}
				if err := productRepo.Create(&product); err != nil {
					return err
				}
				result.Created++
			} else {
				if err := productRepo.Update(&product); err != nil {
					return err
				}
				result.Updated++
			}

			if stockDelta != 0 {
				movement := &model.StockMovement{
					ProductID:     product.ID,
					Type:          model.MovementImport,
					StockDelta:    stockDelta,
					StockAfter:    product.Stock,
					ReservedAfter: product.Reserved,
					Reference:     "csv-import",
				}
				movement.CreatedBy = actor.ID
				movement.UpdatedBy = actor.ID
				if err := movementRepo.Create(movement); err != nil {
					return err
				}
			}
			touched = append(touched, product)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("products imported",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", len(result.Skipped)),
		zap.String("user", actor.Email),
	)
	publishStock(s.wsHub, touched, actor)
	return result, nil
}

func (s *inventoryService) ExportCSV() ([]byte, error) {
	products, err := s.productRepo.FindAll(repository.ProductFilter{})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, p := range products {
		record := []string{
			p.Code,
			p.Name,
			p.Category,
			p.UnitOfMeasure,
			p.Cost.StringFixed(2),
			p.PackPrice.StringFixed(2),
			strconv.Itoa(p.UnitsPerPack),
			strconv.Itoa(p.Stock),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
