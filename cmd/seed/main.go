// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/security"
	"everpack/internal/core/types"
	"everpack/internal/domain/alerts"
	"everpack/internal/domain/auth"
	"everpack/internal/domain/catalogs/category"
	"everpack/internal/domain/catalogs/customer"
	"everpack/internal/domain/catalogs/product"
	"everpack/internal/domain/catalogs/supplier"
	"everpack/internal/domain/documents"
	"everpack/internal/domain/documents/bulkorder"
	"everpack/internal/domain/documents/sale"
	"everpack/internal/domain/registers/stock"
	"everpack/internal/infrastructure/numerator"
	"everpack/internal/infrastructure/storage/postgres"
	"everpack/internal/infrastructure/storage/postgres/auth_repo"
	"everpack/internal/infrastructure/storage/postgres/catalog_repo"
	"everpack/internal/infrastructure/storage/postgres/document_repo"
	"everpack/internal/infrastructure/storage/postgres/register_repo"
	"everpack/pkg/logger"
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(getEnv("JWT_SECRET", "seed-only-secret")))
	authService := auth.NewService(
		auth_repo.NewUserRepo(txManager),
		auth_repo.NewTokenRepo(txManager),
		jwtService,
		auth.DefaultServiceConfig(),
	)

	admin, err := seedUsers(ctx, authService, log)
	if err != nil {
		log.Fatalw("failed to seed users", "error", err)
	}

	// Everything below runs as the admin so created_by enrichment works.
	ctx = security.WithUserID(ctx, admin.ID.String())

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, txManager, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedUsers creates the three built-in accounts. Existing users are left
// untouched, so the seeder can run on every deploy.
func seedUsers(ctx context.Context, authService *auth.Service, log *logger.Logger) (*auth.User, error) {
	adminPassword := getEnv("ADMIN_PASSWORD", "Admin123!")
	demoPassword := getEnv("DEMO_PASSWORD", "Demo123!")

	seeds := []auth.CreateUserRequest{
		{
			Username:  getEnv("ADMIN_USERNAME", "admin"),
			Email:     getEnv("ADMIN_EMAIL", "admin@everpack.local"),
			Password:  adminPassword,
			FirstName: "System",
			LastName:  "Admin",
			Role:      security.RoleAdmin,
		},
		{
			Username:  "manager",
			Email:     "manager@everpack.local",
			Password:  demoPassword,
			FirstName: "Mary",
			LastName:  "Manager",
			Role:      security.RoleManager,
		},
		{
			Username:  "sales",
			Email:     "sales@everpack.local",
			Password:  demoPassword,
			FirstName: "Sam",
			LastName:  "Seller",
			Role:      security.RoleSalesRep,
		},
	}

	var admin *auth.User
	for _, req := range seeds {
		user, err := authService.CreateUser(ctx, req)
		if err != nil {
			if apperror.IsConflict(err) {
				log.Infow("user already exists, skipping", "username", req.Username)
				existing, getErr := authService.GetUserByUsername(ctx, req.Username)
				if getErr != nil {
					return nil, fmt.Errorf("load existing user %s: %w", req.Username, getErr)
				}
				user = existing
			} else {
				return nil, fmt.Errorf("create user %s: %w", req.Username, err)
			}
		} else {
			log.Infow("user created", "username", user.Username, "role", user.Role)
		}
		if req.Role == security.RoleAdmin {
			admin = user
		}
	}

	return admin, nil
}

// seedDemoData populates a small but coherent data set: a few catalogs,
// opening stock for every product, one paid invoice and one submitted
// bulk order. Skipped entirely when any product already exists.
func seedDemoData(ctx context.Context, pool *postgres.Pool, txManager *postgres.TxManager, log *logger.Logger) error {
	var hasProducts bool
	err := pool.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cat_products WHERE NOT deletion_mark)`,
	).Scan(&hasProducts)
	if err != nil {
		return fmt.Errorf("check existing products: %w", err)
	}
	if hasProducts {
		log.Info("products already present, skipping demo data")
		return nil
	}

	log.Info("seeding demo data...")

	numeratorService := numerator.New(txManager)
	events := postgres.NewOutboxPublisher(txManager)

	categoryService := category.NewService(catalog_repo.NewCategoryRepo(txManager), txManager, numeratorService)
	supplierService := supplier.NewService(catalog_repo.NewSupplierRepo(txManager), txManager, numeratorService)
	customerService := customer.NewService(catalog_repo.NewCustomerRepo(txManager), txManager, numeratorService)
	productService := product.NewService(catalog_repo.NewProductRepo(txManager), txManager)

	stockRepo := register_repo.NewStockRepo(txManager)
	alertService := alerts.NewService(register_repo.NewAlertRepo(txManager), productService, stockRepo, events)
	stockService := stock.NewService(stockRepo, productService, alertService, txManager)

	saleService := sale.NewService(sale.ServiceConfig{
		Repo:      document_repo.NewSaleRepo(txManager),
		Customers: customerService,
		Products:  productService,
		Ledger:    stockService,
		Numerator: numeratorService,
		TxManager: txManager,
		Events:    events,
	})
	bulkOrderService := bulkorder.NewService(bulkorder.ServiceConfig{
		Repo:      document_repo.NewBulkOrderRepo(txManager),
		Pricing:   documents.NewPriceResolver(productService),
		Sales:     saleService,
		Numerator: numeratorService,
		TxManager: txManager,
		Events:    events,
	})

	// Categories. Codes are generated by the numerator.
	beverages := category.New("", "Beverages")
	snacks := category.New("", "Snacks")
	household := category.New("", "Household")
	for _, c := range []*category.Category{beverages, snacks, household} {
		if err := categoryService.Create(ctx, c); err != nil {
			return fmt.Errorf("create category %s: %w", c.Name, err)
		}
	}

	// Suppliers
	coastal := supplier.New("", "Coastal Distributors Ltd")
	coastal.ContactPerson = "Joseph Mwangi"
	coastal.Phone = "+254700111222"
	coastal.Address = "14 Harbour Road, Mombasa"

	upcountry := supplier.New("", "Upcountry Wholesale Co")
	upcountry.ContactPerson = "Grace Njeri"
	upcountry.Phone = "+254700333444"
	upcountry.Address = "Plot 7, Industrial Area, Nakuru"

	for _, s := range []*supplier.Supplier{coastal, upcountry} {
		if err := supplierService.Create(ctx, s); err != nil {
			return fmt.Errorf("create supplier %s: %w", s.Name, err)
		}
	}

	// Customers
	walkIn := customer.New("", "Walk-in Customer")
	walkIn.Phone = "+254700000000"

	kiosk := customer.New("", "Mama Pima Kiosk")
	kiosk.Type = customer.TypeWholesale
	kiosk.Phone = "+254722555666"
	kiosk.CreditLimit = types.MustMoney("50000")

	for _, c := range []*customer.Customer{walkIn, kiosk} {
		if err := customerService.Create(ctx, c); err != nil {
			return fmt.Errorf("create customer %s: %w", c.Name, err)
		}
	}

	// Products
	type productSeed struct {
		sku      string
		name     string
		category *category.Category
		supplier *supplier.Supplier
		unit     product.Unit
		cost     string
		price    string
		minStock int64
		opening  types.Quantity
	}

	productSeeds := []productSeed{
		{"BEV-COLA-500", "Cola 500ml", beverages, coastal, product.UnitPiece, "35", "60", 24, 120},
		{"BEV-WTR-1L", "Mineral Water 1L", beverages, coastal, product.UnitPiece, "25", "50", 24, 96},
		{"SNK-CRISP-50", "Potato Crisps 50g", snacks, upcountry, product.UnitPack, "18", "30", 30, 150},
		{"SNK-BISC-200", "Biscuits 200g", snacks, upcountry, product.UnitPack, "42", "70", 20, 80},
		{"HH-SOAP-BAR", "Laundry Soap Bar", household, upcountry, product.UnitPiece, "55", "90", 12, 48},
		{"HH-BLEACH-750", "Bleach 750ml", household, coastal, product.UnitPiece, "80", "130", 10, 6},
	}

	productsBySKU := make(map[string]*product.Product, len(productSeeds))
	for _, ps := range productSeeds {
		p := product.New(ps.sku, ps.name, ps.category.ID, ps.supplier.ID)
		p.Unit = ps.unit
		p.CostPrice = types.MustMoney(ps.cost)
		p.SellingPrice = types.MustMoney(ps.price)
		p.MinimumStock = ps.minStock
		if err := productService.Create(ctx, p); err != nil {
			return fmt.Errorf("create product %s: %w", ps.sku, err)
		}
		productsBySKU[ps.sku] = p
	}

	// Opening stock. Goes through the ledger service so alert evaluation
	// runs; the low bleach quantity leaves one LOW_STOCK alert active.
	for _, ps := range productSeeds {
		_, err := stockService.RecordMovement(ctx, stock.MovementInput{
			ProductID:    productsBySKU[ps.sku].ID,
			MovementType: entity.MovementIn,
			Quantity:     ps.opening,
			Reason:       entity.ReasonPurchase,
			Reference:    "OPENING",
			Notes:        "opening balance",
		})
		if err != nil {
			return fmt.Errorf("record opening stock for %s: %w", ps.sku, err)
		}
	}

	// One settled invoice for the walk-in customer. Zero unit prices are
	// resolved to the product selling price by the sale service.
	demoSale := sale.NewSale(walkIn.ID)
	demoSale.AddItem(productsBySKU["BEV-COLA-500"].ID, 4, types.Zero())
	demoSale.AddItem(productsBySKU["SNK-CRISP-50"].ID, 2, types.Zero())
	if err := saleService.Create(ctx, demoSale); err != nil {
		return fmt.Errorf("create demo sale: %w", err)
	}
	if _, err := saleService.RecordPayment(ctx, demoSale.ID, sale.PaymentInput{
		Amount: demoSale.TotalAmount,
		Method: sale.MethodCash,
	}); err != nil {
		return fmt.Errorf("record demo payment: %w", err)
	}
	log.Infow("demo sale created", "number", demoSale.Number)

	// One submitted bulk order for the wholesale customer, left pending
	// so the workflow endpoints have something to act on.
	order := bulkorder.New(kiosk.ID)
	order.AddItem(productsBySKU["BEV-WTR-1L"].ID, 48, types.Zero(), "")
	order.AddItem(productsBySKU["HH-SOAP-BAR"].ID, 24, types.Zero(), "deliver Friday")
	if err := bulkOrderService.Create(ctx, order); err != nil {
		return fmt.Errorf("create demo bulk order: %w", err)
	}
	if _, err := bulkOrderService.Submit(ctx, order.ID); err != nil {
		return fmt.Errorf("submit demo bulk order: %w", err)
	}
	log.Infow("demo bulk order created", "number", order.Number)

	log.Infow("demo data seeded",
		"categories", 3,
		"suppliers", 2,
		"customers", 2,
		"products", len(productSeeds),
	)

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
