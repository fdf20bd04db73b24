package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/putao520/qrcodesdk/internal/core"
	"github.com/putao520/qrcodesdk/internal/qrcode"
	"github.com/spf13/cobra"
)

var version = "v0.1.0"

// errNotDecoded makes decode exit non-zero without printing usage.
var errNotDecoded = errors.New("no QR code found")

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "qrcode",
		Short:         "Encode text into QR code images and decode them back",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (defaults to $CONFIG_PATH or config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newEncodeCmd(opts))
	root.AddCommand(newDecodeCmd(opts))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qrcode %s\n", version)
		},
	})
	return root
}

func newEncodeCmd(opts *options) *cobra.Command {
	var (
		output   string
		logo     string
		compress bool
		format   string
		size     int
		codec    string
	)

	cmd := &cobra.Command{
		Use:   "encode [content]",
		Short: "Write a QR code image for content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadQRConfig(opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				cfg.Format = format
			}
			if cmd.Flags().Changed("size") {
				cfg.Size = size
			}
			if cmd.Flags().Changed("codec") {
				cfg.Codec = qrcode.CodecConfig{Name: codec}
			}

			c, err := qrcode.New(cfg, qrcode.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			if output == "" {
				output = "qrcode" + c.Format().Extension()
			}
			if err := c.EncodeToFile(args[0], logo, output, compress); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "encode failed: %v\n", err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default qrcode.<ext>)")
	cmd.Flags().StringVar(&logo, "logo", "", "Logo image to place at the center")
	cmd.Flags().BoolVar(&compress, "compress", false, "Shrink the logo to the configured maximum size")
	cmd.Flags().StringVar(&format, "format", qrcode.DefaultFormat, "Output format: jpeg or png")
	cmd.Flags().IntVar(&size, "size", qrcode.DefaultSize, "Image width and height in pixels")
	cmd.Flags().StringVar(&codec, "codec", "", "Symbol codec: zxing, skip2 or boombuler")
	return cmd
}

func newDecodeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [path]",
		Short: "Print the text of the QR code in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadQRConfig(opts)
			if err != nil {
				return err
			}
			c, err := qrcode.New(cfg, qrcode.WithLogger(slog.Default()))
			if err != nil {
				return err
			}

			text, ok := c.DecodePath(args[0])
			if !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "no QR code found in %s\n", args[0])
				return errNotDecoded
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

// loadQRConfig reads the qrcode section of the service config, falling back to defaults.
func loadQRConfig(opts *options) (qrcode.Config, error) {
	path := opts.configPath
	if path == "" {
		path = core.ConfigPath()
	}
	config, err := core.LoadConfig(path)
	if err != nil {
		return qrcode.Config{}, err
	}
	return config.QRCode, nil
}
