package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/server"
)

func main() {
	logger := app.NewLogger(os.Stdout, os.Getenv("DEBUG") != "")

	cfg, err := common.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, err := app.NewProcessor(cfg, logger)
	if err != nil {
		logger.Error("failed to build processor", "error", err)
		os.Exit(1)
	}
	driver := app.NewDriver(cfg, proc, logger)

	store, err := app.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open batch history store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	var batches repository.BatchRepository
	if store != nil {
		batches = store.Batches
	}

	// base64 inflates the document by 4/3
	maxRecv := 4 << 20
	if n := 4*(cfg.Batch.MaxFileMB<<20)/3 + 1<<20; n > maxRecv {
		maxRecv = n
	}
	grpcServer := grpc.NewServer(grpc.MaxRecvMsgSize(maxRecv))
	// Health service
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(server.ExtractorServiceName, healthpb.HealthCheckResponse_SERVING)
	// Reflection for grpcurl
	reflection.Register(grpcServer)

	server.RegisterExtractorServer(grpcServer, server.NewInvoiceService(driver, batches, cfg.Batch.MaxFileMB, logger))

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("listen", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	logger.Info("gRPC serving", "addr", cfg.Server.GRPCAddr)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	hs.Shutdown()
	grpcServer.GracefulStop()
	logger.Info("stopped")
}
