package main

import "github.com/TheNetworkGuy/netbox-zabbix-sync/cmd"

func main() {
	cmd.Execute()
}
