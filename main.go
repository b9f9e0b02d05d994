package main

import "github.com/klytics/sheetai/cmd"

func main() {
	cmd.Execute()
}
