package services

import (
	"sort"

	"findchain-api/models"
)

func sortBountiesNewestFirst(bs []models.ActiveBounty) {
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].CreatedAt > bs[j].CreatedAt })
}

func sortOpenBountiesNewestFirst(bs []models.OpenBounty) {
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].CreatedAt > bs[j].CreatedAt })
}

func sortListingsNewestFirst(ls []models.FoundListing) {
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].SubmittedAt > ls[j].SubmittedAt })
}
