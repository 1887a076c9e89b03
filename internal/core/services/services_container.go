package services

import (
	portssvc "github.com/dkuznetsov/bank-cards/internal/core/ports/services"
	"github.com/dkuznetsov/bank-cards/internal/platform/pancrypto"
	"github.com/dkuznetsov/bank-cards/internal/repositories/database/pgsql"
)

// ServicesContainer bundles all core services behind their facades.
type ServicesContainer struct {
	UserSvc     portssvc.UserSvcFacade
	AuthSvc     portssvc.AuthSvcFacade
	CardSvc     portssvc.CardSvcFacade
	TransferSvc portssvc.TransferSvcFacade
}

// NewServicesContainer wires all services to the given repositories and
// crypto components.
func NewServicesContainer(repos *pgsql.RepositoryContainer, codec *pancrypto.Codec, hasher *pancrypto.Hasher, authCfg AuthConfig) *ServicesContainer {
	return &ServicesContainer{
		UserSvc:     NewUserService(repos.UserRepo),
		AuthSvc:     NewAuthService(repos.UserRepo, authCfg),
		CardSvc:     NewCardService(repos.CardRepo, repos.UserRepo, repos.TransactionRepo, codec, hasher),
		TransferSvc: NewTransferService(repos.CardRepo, repos.UserRepo, repos.TransactionRepo),
	}
}
