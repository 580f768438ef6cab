// Package models contains the GORM persistence models. Domain entities stay
// free of ORM tags; repositories convert with ToDomain and *FromDomain.
package models
