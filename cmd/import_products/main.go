// import_products carga productos a una tienda desde un CSV exportado de una planilla.
//
// Uso: go run ./cmd/import_products -shop <uuid> -user <uuid> -file productos.csv [-encoding auto|utf8|cp1251|latin1] [-dry-run]
//
// Columnas: name,price,cost_price,barcode,quantity[,category]. La cantidad inicial queda
// registrada como movimiento de entrada, igual que al crear el producto por la API.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/usecase"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-api/pkg/config"
	"github.com/jhoicas/pos-api/pkg/logger"
)

func main() {
	shopID := flag.String("shop", "", "tienda destino (uuid)")
	userID := flag.String("user", "", "usuario que figura como creador (uuid)")
	file := flag.String("file", "", "ruta del CSV")
	enc := flag.String("encoding", "auto", "auto, utf8, cp1251 o latin1")
	dryRun := flag.Bool("dry-run", false, "solo valida el archivo")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "import_products"}).Zerolog()

	if *file == "" || (!*dryRun && (*shopID == "" || *userID == "")) {
		flag.Usage()
		os.Exit(2)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("leer archivo")
	}
	text, used, err := decode(raw, *enc)
	if err != nil {
		log.Fatal().Err(err).Msg("decodificar archivo")
	}
	rows, rowErrs, err := parse(bytes.NewReader(text))
	if err != nil {
		log.Fatal().Err(err).Msg("leer CSV")
	}
	for _, re := range rowErrs {
		log.Warn().Int("line", re.Line).Err(re.Err).Msg("fila descartada")
	}
	log.Info().Str("encoding", used).Int("rows", len(rows)).Int("invalid", len(rowErrs)).Msg("archivo leído")
	if *dryRun {
		return
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	categoryRepo := postgres.NewCategoryRepository(pool)
	unitRepo := postgres.NewUnitRepository(pool)
	imp := &importer{
		products:   usecase.NewProductUseCase(postgres.NewTxRunner(pool), postgres.NewProductRepository(pool), categoryRepo, unitRepo),
		categories: usecase.NewCategoryUseCase(categoryRepo),
		shopID:     *shopID,
		userID:     *userID,
		log:        log,
	}
	created, skipped := imp.run(ctx, rows)
	log.Info().Int("created", created).Int("skipped", skipped+len(rowErrs)).Msg("importación terminada")
}

type importer struct {
	products   *usecase.ProductUseCase
	categories *usecase.CategoryUseCase
	shopID     string
	userID     string
	log        zerolog.Logger

	categoryIDs map[string]string // nombre en minúsculas -> id
}

// run crea los productos uno a uno; un fallo de fila se registra y se sigue con la próxima.
func (imp *importer) run(ctx context.Context, rows []row) (created, skipped int) {
	for _, r := range rows {
		categoryID, err := imp.category(ctx, r.Category)
		if err == nil {
			_, err = imp.products.Create(ctx, imp.shopID, imp.userID, dto.CreateProductRequest{
				Name:            r.Name,
				Price:           r.Price,
				CostPrice:       r.Cost,
				Barcode:         r.Barcode,
				CategoryID:      categoryID,
				InitialQuantity: r.Quantity,
			})
		}
		if err != nil {
			skipped++
			ev := imp.log.Warn().Int("line", r.Line).Str("name", r.Name)
			var ve *domain.ValidationError
			switch {
			case errors.As(err, &ve):
				ev = ev.Interface("fields", ve.Fields)
			case errors.Is(err, domain.ErrDuplicate):
				ev = ev.Str("barcode", r.Barcode)
			}
			ev.Err(err).Msg("producto no importado")
			continue
		}
		created++
	}
	return created, skipped
}

// category resuelve la categoría por nombre dentro de la tienda y la crea si no existe.
func (imp *importer) category(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	if imp.categoryIDs == nil {
		list, err := imp.categories.List(ctx, imp.shopID)
		if err != nil {
			return "", err
		}
		imp.categoryIDs = make(map[string]string, len(list))
		for _, c := range list {
			imp.categoryIDs[strings.ToLower(c.Name)] = c.ID
		}
	}
	key := strings.ToLower(name)
	if id, ok := imp.categoryIDs[key]; ok {
		return id, nil
	}
	c, err := imp.categories.Create(ctx, imp.shopID, dto.CreateCategoryRequest{Name: name})
	if err != nil {
		return "", err
	}
	imp.categoryIDs[key] = c.ID
	return c.ID, nil
}
