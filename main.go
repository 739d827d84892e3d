package main

import "github.com/ValentinKolb/kvrpc/cmd"

func main() {
	cmd.Execute()
}
