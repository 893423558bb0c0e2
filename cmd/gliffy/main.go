package main

import "github.com/gliffy-migrator/backend/cmd/gliffy/cmd"

func main() {
	cmd.Execute()
}
