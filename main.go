package main

import "github.com/kiesman99/resample/cmd"

func main() {
	cmd.Execute()
}
