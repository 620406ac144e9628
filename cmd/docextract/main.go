/**
 * docextract - multi-engine document text extraction
 *
 * Commands:
 *   process  run every configured engine on a file or directory, save JSON
 *   enhance  fuse engine outputs for one image, clean it, extract entities
 *   ner      extract named entities from a text or JSON file
 *   serve    expose single-file processing over HTTP
 */

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
