package main

import "github.com/gridworks/sheetkit/cmd"

func main() {
	cmd.Execute()
}
