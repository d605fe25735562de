package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/cobra"

	"github.com/JoshVarga/zstd"
)

var (
	outputFile string
	dictFile   string
	check      bool
)

func main() {
	root := &cobra.Command{
		Use:           "unzstd <file>",
		Short:         "Decompress a single-frame Zstandard file",
		Args:          cobra.ExactArgs(1),
		RunE:          runDecompress,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: input without .zst)")
	root.Flags().StringVarP(&dictFile, "dictionary", "D", "", "dictionary file")
	root.Flags().BoolVar(&check, "check", false, "verify the frame's XXH64 content checksum")

	root.AddCommand(&cobra.Command{
		Use:           "size <file>",
		Short:         "Print the declared decompressed size of a frame",
		Args:          cobra.ExactArgs(1),
		RunE:          runSize,
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runDecompress(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var dict *zstd.Dictionary
	if dictFile != "" {
		raw, err := os.ReadFile(dictFile)
		if err != nil {
			return err
		}
		if dict, err = zstd.NewDictionary(raw); err != nil {
			return err
		}
	}

	decoded, err := decompress(src, dict)
	if err != nil {
		return err
	}

	if check {
		if err := verifyChecksum(src, decoded); err != nil {
			return err
		}
	}

	out := outputFile
	if out == "" {
		out = strings.TrimSuffix(args[0], ".zst")
		if out == args[0] {
			out = args[0] + ".out"
		}
	}
	return os.WriteFile(out, decoded, 0644)
}

func decompress(src []byte, dict *zstd.Dictionary) ([]byte, error) {
	size, known, err := zstd.DecompressedSize(src)
	if err != nil {
		return nil, err
	}
	if known {
		dst := make([]byte, size)
		n, err := zstd.DecompressDict(dst, src, dict)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	}

	guess := 2 * len(src)
	if guess < 1<<20 {
		guess = 1 << 20
	}
	for {
		dst := make([]byte, guess)
		n, err := zstd.DecompressDict(dst, src, dict)
		if err == zstd.ErrOutputTooSmall {
			guess *= 2
			continue
		}
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	}
}

// verifyChecksum compares the frame's stored XXH64 checksum, when present,
// against a hash of the decompressed output. The library skips the checksum
// bytes, so verification lives here.
func verifyChecksum(src, decoded []byte) error {
	want, present, err := zstd.ContentChecksum(src)
	if err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("no content checksum in frame")
	}
	if got := uint32(xxhash.Sum64(decoded)); got != want {
		return fmt.Errorf("checksum mismatch: computed %08x, frame says %08x", got, want)
	}
	return nil
}

func runSize(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	size, known, err := zstd.DecompressedSize(src)
	if err != nil {
		return err
	}
	if !known {
		fmt.Println("unknown")
		return nil
	}
	fmt.Println(size)
	return nil
}
