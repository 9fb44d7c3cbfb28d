package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/sceptive/veilith/src/config"
	"github.com/sceptive/veilith/src/container"
	"github.com/sceptive/veilith/src/device"
	"github.com/sceptive/veilith/src/services"
	"github.com/sceptive/veilith/src/stego"
)

const usage = `veilith <command> [flags]

commands:
  seal     build a container from prompted entries and hide it in cover images
  open     extract a container from stego images and decrypt one payload
  rewrite  replace one payload and re-hide the container in fresh covers
  import   adopt a foreign container by re-sealing it under this device
  verify   check whether stego images hold a container bound to this device
`

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	// Load configuration (fail-fast)
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Environment == "production" && level > logrus.InfoLevel {
		// The debug channel exists for development builds only.
		logger.SetLevel(logrus.InfoLevel)
	}

	keys := device.NewFileProvider(cfg.DeviceKeyFile)
	vault := services.NewVaultService(cfg, keys, logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "seal":
		err = runSeal(vault, cfg, os.Args[2:])
	case "open":
		err = runOpen(vault, os.Args[2:])
	case "rewrite":
		err = runRewrite(vault, cfg, os.Args[2:])
	case "import":
		err = runImport(vault, cfg, os.Args[2:])
	case "verify":
		err = runVerify(vault, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.WithError(err).Fatal("command failed")
	}
}

func runSeal(vault *services.VaultService, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("seal", flag.ExitOnError)
	coverList := fs.String("covers", "", "comma-separated cover PNG paths, in order")
	outDir := fs.String("out", cfg.VaultDir, "output directory for the stego set")
	fs.Parse(args)

	covers, err := services.LoadCovers(splitList(*coverList))
	if err != nil {
		return err
	}

	entries, err := promptEntries()
	if err != nil {
		return err
	}

	stegos, err := vault.Seal(entries, covers)
	if err != nil {
		return err
	}
	paths, err := vault.SaveStegoSet(*outDir, stegos)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func runOpen(vault *services.VaultService, args []string) error {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	imageList := fs.String("images", "", "comma-separated stego PNG paths, in order")
	ignoreDevice := fs.Bool("ignore-device", false, "decrypt even if the container is device-foreign")
	fs.Parse(args)

	stegos, err := services.LoadCovers(splitList(*imageList))
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	result, _, err := vault.Open(context.Background(), stegos, password, *ignoreDevice)
	if err != nil {
		return err
	}
	if result.Status != container.StatusValid {
		return fmt.Errorf("decrypt failed: %s", result.Status)
	}
	fmt.Println(result.Message)
	return nil
}

func runRewrite(vault *services.VaultService, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("rewrite", flag.ExitOnError)
	imageList := fs.String("images", "", "comma-separated stego PNG paths, in order")
	coverList := fs.String("covers", "", "comma-separated fresh cover PNG paths")
	outDir := fs.String("out", cfg.VaultDir, "output directory for the new stego set")
	allowDeviceChange := fs.Bool("allow-device-change", false, "update a device-foreign container")
	fs.Parse(args)

	stegos, err := services.LoadCovers(splitList(*imageList))
	if err != nil {
		return err
	}
	covers, err := services.LoadCovers(splitList(*coverList))
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	newMessage, err := promptLine("New message: ")
	if err != nil {
		return err
	}

	result, data, err := vault.Open(context.Background(), stegos, password, *allowDeviceChange)
	if err != nil {
		return err
	}
	if result.Status != container.StatusValid {
		return fmt.Errorf("decrypt failed: %s", result.Status)
	}

	updated, err := vault.Rewrite(data, password, result.SaltIndex, result.BlockIndex, newMessage, *allowDeviceChange)
	if err != nil {
		return err
	}
	out, err := stego.EncodeChunked(updated, covers, cfg.StegoChunkSize)
	if err != nil {
		return err
	}
	paths, err := vault.SaveStegoSet(*outDir, out)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func runImport(vault *services.VaultService, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	imageList := fs.String("images", "", "comma-separated stego PNG paths, in order")
	coverList := fs.String("covers", "", "comma-separated fresh cover PNG paths")
	outDir := fs.String("out", cfg.VaultDir, "output directory for the re-sealed stego set")
	fs.Parse(args)

	stegos, err := services.LoadCovers(splitList(*imageList))
	if err != nil {
		return err
	}
	covers, err := services.LoadCovers(splitList(*coverList))
	if err != nil {
		return err
	}

	data, err := stego.DecodeChunked(stegos)
	if err != nil {
		return err
	}
	resealed, err := vault.Import(data)
	if err != nil {
		return err
	}
	out, err := stego.EncodeChunked(resealed, covers, cfg.StegoChunkSize)
	if err != nil {
		return err
	}
	paths, err := vault.SaveStegoSet(*outDir, out)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func runVerify(vault *services.VaultService, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	imageList := fs.String("images", "", "comma-separated stego PNG paths, in order")
	fs.Parse(args)

	stegos, err := services.LoadCovers(splitList(*imageList))
	if err != nil {
		return err
	}
	data, err := stego.DecodeChunked(stegos)
	if err != nil {
		return err
	}
	valid, reason := vault.VerifyDevice(data)
	if !valid {
		return fmt.Errorf("device check failed: %s", reason)
	}
	fmt.Println("container is bound to this device")
	return nil
}

func promptEntries() ([]container.Entry, error) {
	var entries []container.Entry
	for {
		password, err := promptPassword(fmt.Sprintf("Password for entry %d (empty to finish): ", len(entries)+1))
		if err != nil {
			return nil, err
		}
		if password == "" {
			break
		}
		message, err := promptLine("Message: ")
		if err != nil {
			return nil, err
		}
		entries = append(entries, container.Entry{Password: password, Message: message})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("at least one entry is required")
	}
	return entries, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("password read failed: %w", err)
	}
	return string(password), nil
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			break
		}
	}
	return strings.TrimRight(sb.String(), "\r"), nil
}

func splitList(list string) []string {
	var out []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
