package main

import "github.com/nvr-ai/blobtrail/cmd"

func main() {
	cmd.Execute()
}
