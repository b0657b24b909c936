package main

import "github.com/frahmantamala/storefront-pos/cmd"

func main() {
	cmd.Execute()
}
