package main

import "github.com/varalys/vibeguard/cmd/vibeguard"

func main() { vibeguard.Execute() }
