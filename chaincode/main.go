package main

import (
	"log"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

func main() {
	chaincode, err := contractapi.NewChaincode(&HerbTraceContract{})
	if err != nil {
		log.Fatalf("Error creating herbtrace chaincode: %v", err)
	}
	chaincode.Info.Title = "herbtrace"
	chaincode.Info.Version = "1.0.0"

	if err := chaincode.Start(); err != nil {
		log.Fatalf("Error starting herbtrace chaincode: %v", err)
	}
}
