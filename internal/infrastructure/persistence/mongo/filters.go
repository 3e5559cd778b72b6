package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ownerFilter derives the access filter for the caller: {owner: id} for
// an authenticated caller, {} otherwise.
func ownerFilter(owner *primitive.ObjectID) bson.M {
	if owner == nil {
		return bson.M{}
	}
	return bson.M{"owner": *owner}
}

// byID merges an _id match into the owner filter. Ownership mismatch is
// indistinguishable from a missing document on purpose.
func byID(id primitive.ObjectID, owner *primitive.ObjectID) bson.M {
	filter := ownerFilter(owner)
	filter["_id"] = id
	return filter
}
