// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"beneficio/internal/core/apperror"
	appctx "beneficio/internal/core/context"
	"beneficio/internal/domain/auth"
	"beneficio/internal/domain/bodega"
	"beneficio/internal/domain/partida"
	"beneficio/internal/infrastructure/storage/postgres"
	"beneficio/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	adminUser, err := seedAdminUser(ctx, txManager, log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	// Seeded records carry the admin as their author.
	ctx = appctx.WithUser(ctx, &appctx.UserContext{
		UserID:   adminUser.ID.String(),
		Username: adminUser.Username,
		IsAdmin:  true,
	})

	if err := seedBodegas(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed bodegas", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoPartidas(ctx, txManager, log); err != nil {
			log.Fatalw("failed to seed demo partidas", "error", err)
		}
	}

	log.Info("seeding complete")
}

func seedAdminUser(ctx context.Context, txm *postgres.TxManager, log *logger.Logger) (*auth.User, error) {
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("seed-only"))
	userRepo := postgres.NewUserRepo(txm)
	authService := auth.NewService(userRepo, txm, jwtService, auth.DefaultServiceConfig())

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123!"
		log.Warn("ADMIN_PASSWORD not set, using default")
	}

	user, err := authService.Register(ctx, auth.RegisterRequest{
		Username: "admin",
		Password: password,
		Nombre:   "Administrador",
		IsAdmin:  true,
	})
	if isAlreadySeeded(err) {
		log.Info("admin user already exists")
		return userRepo.GetByUsername(ctx, "admin")
	}
	if err != nil {
		return nil, err
	}

	log.Infow("admin user created", "username", user.Username)
	return user, nil
}

func seedBodegas(ctx context.Context, txm *postgres.TxManager, log *logger.Logger) error {
	loteRepo := postgres.NewLoteRepo(txm)
	bodegaRepo := postgres.NewBodegaRepo(txm)
	service := bodega.NewService(bodegaRepo, loteRepo, txm, nil)

	bodegas := []bodega.CreateBodegaInput{
		{Codigo: "A", Nombre: "Bodega A", CapacidadKg: decimal.NewFromInt(50000), Ubicacion: "Nave principal"},
		{Codigo: "B", Nombre: "Bodega B", CapacidadKg: decimal.NewFromInt(50000), Ubicacion: "Nave principal"},
		{Codigo: "C", Nombre: "Bodega C", CapacidadKg: decimal.NewFromInt(30000), Ubicacion: "Anexo"},
		{Codigo: "D", Nombre: "Bodega D", CapacidadKg: decimal.NewFromInt(30000), Ubicacion: "Anexo"},
	}

	for _, in := range bodegas {
		if _, err := service.CreateBodega(ctx, in); err != nil {
			if isAlreadySeeded(err) {
				log.Infow("bodega already exists", "codigo", in.Codigo)
				continue
			}
			return err
		}
		log.Infow("bodega created", "codigo", in.Codigo)
	}
	return nil
}

func seedDemoPartidas(ctx context.Context, txm *postgres.TxManager, log *logger.Logger) error {
	alloc := postgres.NewSequenceAllocator(txm)
	partidaRepo := postgres.NewPartidaRepo(txm)
	subPartidaRepo := postgres.NewSubPartidaRepo(txm)
	movimientoRepo := postgres.NewMovimientoRepo(txm)
	service := partida.NewService(partidaRepo, subPartidaRepo, movimientoRepo, alloc, txm, nil)

	type subSeed struct {
		nombre    string
		proceso   partida.TipoProceso
		quintales string
		sacos     int
		humedad   string
		score     string
	}
	seeds := []struct {
		nombre string
		subs   []subSeed
	}{
		{"1RA LAVADO", []subSeed{
			{"1RA LAVADO", partida.ProcesoLavado, "5.66", 6, "13.9", "86.5"},
			{"CHENTE Y NANDO", partida.ProcesoLavado, "2.92", 4, "11.5", "86.75"},
		}},
		{"NATURALES", []subSeed{
			{"NATURAL TEMPRANO", partida.ProcesoNatural, "3.20", 4, "11.8", "87"},
		}},
	}

	now := time.Now()
	for _, s := range seeds {
		p, err := service.CreatePartida(ctx, partida.CreatePartidaInput{Nombre: s.nombre})
		if err != nil {
			return err
		}
		log.Infow("partida created", "codigo", p.Codigo, "nombre", p.Nombre)

		for _, sub := range s.subs {
			quintales := decimal.RequireFromString(sub.quintales)
			humedad := decimal.RequireFromString(sub.humedad)
			score := decimal.RequireFromString(sub.score)

			// The intake convention declares gross weight as quintales at the
			// 46 kg trade factor with zero tare.
			_, err := service.CreateSubPartida(ctx, partida.CreateSubPartidaInput{
				PartidaID:    p.ID,
				Nombre:       sub.nombre,
				TipoProceso:  sub.proceso,
				Quintales:    quintales,
				PesoBrutoKg:  quintales.Mul(decimal.NewFromInt(46)),
				TaraKg:       decimal.Zero,
				NumeroSacos:  sub.sacos,
				FechaIngreso: &now,
				Calidad: partida.Calidad{
					Humedad: &humedad,
					Score:   &score,
				},
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// isAlreadySeeded reports whether the error is a duplicate of an existing
// seeded record, which reruns tolerate.
func isAlreadySeeded(err error) bool {
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		return false
	}
	return appErr.Code == apperror.CodeDuplicate || appErr.Code == apperror.CodeConflict
}
