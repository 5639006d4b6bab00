package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/anirudhraja/protoview"
	"github.com/anirudhraja/protoview/addressbook"
	"github.com/anirudhraja/protoview/wire"
)

// samplePerson is "maxwell", id 42, with a home and a mobile number.
var samplePerson = []byte{
	0x0a, 0x07, 0x6d, 0x61, 0x78, 0x77, 0x65, 0x6c, 0x6c, 0x10, 0x2a, 0x1a,
	0x16, 0x0a, 0x0e, 0x2b, 0x31, 0x32, 0x30, 0x32, 0x2d, 0x35, 0x35, 0x35,
	0x2d, 0x31, 0x32, 0x31, 0x32, 0x12, 0x04, 0x68, 0x6f, 0x6d, 0x65, 0x1a,
	0x18, 0x0a, 0x0e, 0x2b, 0x31, 0x38, 0x30, 0x30, 0x2d, 0x38, 0x36, 0x37,
	0x2d, 0x35, 0x33, 0x30, 0x38, 0x12, 0x06, 0x6d, 0x6f, 0x62, 0x69, 0x6c,
	0x65,
}

func main() {
	protoDir := flag.String("protos", "testdata", "directory containing addressbook.proto")
	configPath := flag.String("config", "", "optional TOML decoder config")
	input := flag.String("hex", "", "hex-encoded Person to decode instead of the built-in sample")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sampleapp: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck
	wire.SetLogger(logger)

	cfg := wire.DefaultConfig()
	if *configPath != "" {
		cfg, err = wire.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal("failed to load config", zap.String("path", *configPath), zap.Error(err))
		}
	}

	data := samplePerson
	if *input != "" {
		data, err = hex.DecodeString(strings.TrimSpace(*input))
		if err != nil {
			logger.Fatal("invalid hex input", zap.Error(err))
		}
	}

	fmt.Println("📇 Protoview Sample App")
	fmt.Println(strings.Repeat("=", 50))

	// Static decode with hand-written builders
	person, err := wire.ParseMessageWith[addressbook.Person](wire.NewDecoder(cfg), data)
	if err != nil {
		logger.Fatal("failed to decode person", zap.Error(err))
	}
	fmt.Println("\n🔧 Builder decode:")
	fmt.Printf("  name:  %q\n", person.Name)
	fmt.Printf("  id:    %d\n", person.ID)
	for i, phone := range person.Phones {
		fmt.Printf("  phone[%d]: %s (%s)\n", i, phone.Number, phone.Type)
	}

	// Schema-driven decode of the same bytes
	pv := protoview.New([]string{*protoDir}, protoview.WithConfig(cfg))
	if err := pv.LoadSchemaFromFile("addressbook.proto"); err != nil {
		logger.Fatal("failed to load schema", zap.String("dir", *protoDir), zap.Error(err))
	}
	result, err := pv.Parse(data, "tutorial.Person")
	if err != nil {
		logger.Fatal("failed to parse person", zap.Error(err))
	}
	fmt.Println("\n📜 Schema decode:")
	printMap(result, "  ")

	logger.Info("decoded person",
		zap.Int("bytes", len(data)),
		zap.Int("phones", len(person.Phones)),
		zap.Int("max_depth", cfg.MaxDepth))
}

func printMap(m map[string]interface{}, indent string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]interface{}:
			fmt.Printf("%s%s:\n", indent, k)
			printMap(v, indent+"  ")
		case []interface{}:
			fmt.Printf("%s%s: [%d items]\n", indent, k, len(v))
			for i, item := range v {
				if nested, ok := item.(map[string]interface{}); ok {
					fmt.Printf("%s  [%d]\n", indent, i)
					printMap(nested, indent+"    ")
				} else {
					fmt.Printf("%s  [%d] %v\n", indent, i, item)
				}
			}
		default:
			fmt.Printf("%s%s: %v\n", indent, k, v)
		}
	}
}
