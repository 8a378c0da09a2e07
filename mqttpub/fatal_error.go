// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqttpub

import "errors"

var fatalConnackReasonCodes = map[byte]struct{}{
	connackMalformedPacket:             {},
	connackProtocolError:               {},
	connackImplementationSpecificError: {},
	connackUnsupportedProtocolVersion:  {},
	connackClientIdentifierNotValid:    {},
	connackBadUserNameOrPassword:       {},
	connackNotAuthorized:               {},
	connackBanned:                      {},
	connackBadAuthenticationMethod:     {},
	connackTopicNameInvalid:            {},
	connackPacketTooLarge:              {},
	connackPayloadFormatInvalid:        {},
	connackRetainNotSupported:          {},
	connackQoSNotSupported:             {},
	connackUseAnotherServer:            {},
	connackServerMoved:                 {},
}

// isFatalConnackReasonCode checks if the reason code in the CONNACK received
// from the server is fatal.
func isFatalConnackReasonCode(reasonCode byte) bool {
	_, ok := fatalConnackReasonCodes[reasonCode]
	return ok
}

var fatalDisconnectReasonCodes = map[byte]struct{}{
	disconnectMalformedPacket:                     {},
	disconnectProtocolError:                       {},
	disconnectNotAuthorized:                       {},
	disconnectSessionTakenOver:                    {},
	disconnectTopicFilterInvalid:                  {},
	disconnectTopicNameInvalid:                    {},
	disconnectTopicAliasInvalid:                   {},
	disconnectPacketTooLarge:                      {},
	disconnectPayloadFormatInvalid:                {},
	disconnectRetainNotSupported:                  {},
	disconnectQoSNotSupported:                     {},
	disconnectServerMoved:                         {},
	disconnectSharedSubscriptionsNotSupported:     {},
	disconnectSubscriptionIdentifiersNotSupported: {},
	disconnectWildcardSubscriptionsNotSupported:   {},
}

// isFatalDisconnectReasonCode checks if the reason code in the DISCONNECT
// received from the server is fatal.
func isFatalDisconnectReasonCode(reasonCode byte) bool {
	_, ok := fatalDisconnectReasonCodes[reasonCode]
	return ok
}

// retryableConnectError checks whether reconnecting may resolve the given
// connection error. Fatal reason codes and invalid configuration will not
// improve on retry.
func retryableConnectError(err error) bool {
	var fatalConnack *FatalConnackError
	var fatalDisconnect *FatalDisconnectError
	var invalidArgument *InvalidArgumentError
	return !errors.As(err, &fatalConnack) &&
		!errors.As(err, &fatalDisconnect) &&
		!errors.As(err, &invalidArgument)
}
