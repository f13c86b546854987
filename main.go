package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rowdb/config"
	"rowdb/executor"
	"rowdb/server"
	"rowdb/shell"
	"rowdb/storage"
)

func main() {
	cfg := config.Parse()

	catalog := storage.NewCatalog()
	if cfg.DataFile != "" {
		switch err := catalog.LoadFile(cfg.DataFile); {
		case err == nil:
			log.Printf("loaded %d tables from %s", len(catalog.ListTables()), cfg.DataFile)
		case errors.Is(err, os.ErrNotExist):
			log.Printf("%s does not exist yet, starting empty", cfg.DataFile)
		default:
			log.Fatalf("load %s: %v", cfg.DataFile, err)
		}
	}
	exec := executor.New(catalog)

	if cfg.Serve {
		serve(cfg, exec)
	} else {
		sh := shell.New(exec, os.Stdin, os.Stdout, shell.Options{Interactive: true})
		if err := sh.Run(); err != nil {
			log.Printf("shell: %v", err)
		}
	}

	if cfg.DataFile != "" {
		if err := catalog.SaveFile(cfg.DataFile); err != nil {
			log.Fatalf("save %s: %v", cfg.DataFile, err)
		}
		log.Printf("saved %d tables to %s", len(catalog.ListTables()), cfg.DataFile)
	}
}

func serve(cfg *config.Config, exec *executor.Executor) {
	srv := server.New(cfg, exec)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := <-sigCh
		log.Printf("received %v, shutting down...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
	<-done
}
