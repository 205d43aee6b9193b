package main

import "github.com/chrisdamba/trafficflow/cmd"

func main() {
	cmd.Execute()
}
