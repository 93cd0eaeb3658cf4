package main

import "github.com/josephlewis42/aorta/cmd"

func main() {
	cmd.Execute()
}
