package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sir_venger/chunkstage/pkg/uploadclient"
	"github.com/sir_venger/chunkstage/pkg/uploadproto"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "chunkctl",
		Usage: "resumable chunked uploads to a chunkstage server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:3000",
				Usage:   "base URL of the upload service",
				EnvVars: []string{"CHUNKSTAGE_SERVER"},
			},
			&cli.StringFlag{
				Name:  "digest",
				Value: uploadclient.DefaultDigest,
				Usage: "fingerprint algorithm: md5 or sha256",
			},
		},
		Commands: []*cli.Command{uploadCmd, statusCmd},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

var uploadCmd = &cli.Command{
	Name:      "upload",
	Usage:     "upload a file, resuming from chunks already on the server",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "name",
			Usage: "file name on the server (defaults to the local base name)",
		},
		&cli.Int64Flag{
			Name:  "chunk-size",
			Value: uploadclient.DefaultChunkSize,
			Usage: "chunk size in bytes",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Value: uploadclient.DefaultConcurrency,
			Usage: "parallel chunk uploads",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "do not draw progress",
		},
	},
	Action: func(ctx *cli.Context) error {
		path := ctx.Args().First()
		if path == "" {
			return cli.Exit("file path is required", 2)
		}

		opts := uploadclient.UploadOptions{
			FileName:    ctx.String("name"),
			ChunkSize:   ctx.Int64("chunk-size"),
			Concurrency: ctx.Int("concurrency"),
			Digest:      ctx.String("digest"),
		}
		if !ctx.Bool("quiet") {
			opts.Progress = os.Stdout
		}

		c := uploadclient.New(ctx.String("server"))
		res, err := uploadclient.UploadFile(ctx.Context, c, path, opts)
		if err != nil {
			return err
		}

		fmt.Printf("merged %s (%d bytes)\n", res.FilePath, res.FileSize)
		return nil
	},
}

var statusCmd = &cli.Command{
	Name:      "status",
	Usage:     "show how many chunks of a file are already staged",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "hash",
			Usage: "fingerprint to query instead of hashing a local file",
		},
		&cli.Int64Flag{
			Name:  "chunk-size",
			Value: uploadclient.DefaultChunkSize,
		},
	},
	Action: func(ctx *cli.Context) error {
		path := ctx.Args().First()
		hash := ctx.String("hash")
		if hash == "" {
			if path == "" {
				return cli.Exit("file path or --hash is required", 2)
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			hash, err = uploadclient.Fingerprint(f, ctx.String("digest"))
			_ = f.Close()
			if err != nil {
				return err
			}
		}

		c := uploadclient.New(ctx.String("server"))
		inv, err := c.CheckUpload(ctx.Context, uploadproto.CheckUploadRequest{
			FileName:  filepath.Base(path),
			FileHash:  hash,
			ChunkSize: uploadproto.Int(ctx.Int64("chunk-size")),
		})
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d chunks staged (chunk size %d)\n", hash, inv.UploadedChunks, inv.ChunkSize)
		return nil
	},
}
