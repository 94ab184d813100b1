package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-getter"
	"github.com/pelletier/go-toml/v2"
)

// FetchTimeout bounds a remote genesis download.
const FetchTimeout = 120 * time.Second

// LoadGenesis reads a genesis TOML file from disk.
func LoadGenesis(filePath string) (*Genesis, error) {
	if !strings.HasSuffix(filePath, ".toml") {
		return nil, fmt.Errorf("genesis file must be a .toml file: %s", filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file %s: %w", filePath, err)
	}

	genesis, err := ParseGenesis(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse genesis file %s: %w", filePath, err)
	}
	return genesis, nil
}

// ParseGenesis decodes genesis TOML. Unknown keys are rejected so typos do not
// silently fall back to defaults.
func ParseGenesis(data []byte) (*Genesis, error) {
	var genesis Genesis
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&genesis); err != nil {
		return nil, err
	}
	return &genesis, nil
}

// FetchGenesis loads the genesis from src, which is either a local file or any
// source go-getter understands (https, git, s3, ...). Remote files are
// downloaded into a temporary directory that is removed afterwards.
func FetchGenesis(ctx context.Context, src string) (*Genesis, error) {
	if _, err := os.Stat(src); err == nil {
		return LoadGenesis(src)
	}

	dir, err := os.MkdirTemp("", "dexrouter-genesis-")
	if err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}
	defer os.RemoveAll(dir)

	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	pwd, _ := os.Getwd()
	dst := filepath.Join(dir, "genesis.toml")
	client := getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return nil, fmt.Errorf("failed to download genesis from %s: %w", src, err)
	}
	return LoadGenesis(dst)
}
