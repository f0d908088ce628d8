/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ikasoba/notebox/cmd"

func main() {
	cmd.Execute()
}
