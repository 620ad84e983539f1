package main

import "github.com/LegacyCodeHQ/kettle/cmd"

func main() {
	cmd.Execute()
}
